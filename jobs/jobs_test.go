// This file is part of PageRollback.
//
// PageRollback is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PageRollback is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PageRollback.  If not, see <https://www.gnu.org/licenses/>.

package jobs_test

import (
	"sync/atomic"
	"testing"

	"github.com/jetsetilly/pagerollback/jobs"
	"github.com/jetsetilly/pagerollback/test"
)

func TestForkJoin(t *testing.T) {
	for _, width := range []int{0, 1, 2, 4, 8} {
		p := jobs.NewPool(width)

		var count int64
		ctx := &jobs.Context{}
		for i := 0; i < 100; i++ {
			p.Submit(ctx, func() {
				atomic.AddInt64(&count, 1)
			})
		}
		p.Wait(ctx)

		test.Equate(t, atomic.LoadInt64(&count), 100)
		p.Shutdown()
	}
}

func TestContextReuse(t *testing.T) {
	p := jobs.NewPool(2)
	defer p.Shutdown()

	var count int64
	ctx := &jobs.Context{}

	for round := 0; round < 10; round++ {
		for i := 0; i < 10; i++ {
			p.Submit(ctx, func() {
				atomic.AddInt64(&count, 1)
			})
		}
		p.Wait(ctx)
	}

	test.Equate(t, atomic.LoadInt64(&count), 100)
}

func TestWaitWithNoWork(t *testing.T) {
	p := jobs.NewPool(4)
	defer p.Shutdown()

	// wait on an empty context returns immediately
	p.Wait(&jobs.Context{})
}

func TestPanicPropagation(t *testing.T) {
	p := jobs.NewPool(2)
	defer p.Shutdown()

	ctx := &jobs.Context{}
	p.Submit(ctx, func() {
		panic("worker panic")
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected Wait to re-raise worker panic")
		}
		test.Equate(t, r.(string), "worker panic")
	}()
	p.Wait(ctx)
}
