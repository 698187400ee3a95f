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

package arena_test

import (
	"testing"

	"github.com/jetsetilly/pagerollback/arena"
	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/test"
)

func TestAllocExhaustion(t *testing.T) {
	pageSize := mem.PageSize()

	a, err := arena.NewArena(pageSize * 4)
	test.ExpectedSuccess(t, err)
	defer a.Free()

	for i := 0; i < 4; i++ {
		b, err := a.Alloc(pageSize)
		test.ExpectedSuccess(t, err)
		test.Equate(t, len(b), pageSize)
		test.Equate(t, mem.BaseAligned(b), true)
	}
	test.Equate(t, a.Used(), pageSize*4)

	_, err = a.Alloc(pageSize)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.IsAny(err), true)
}

func TestAllocationsDisjoint(t *testing.T) {
	pageSize := mem.PageSize()

	a, err := arena.NewArena(pageSize * 2)
	test.ExpectedSuccess(t, err)
	defer a.Free()

	b1, err := a.Alloc(pageSize)
	test.ExpectedSuccess(t, err)
	b2, err := a.Alloc(pageSize)
	test.ExpectedSuccess(t, err)

	for i := range b1 {
		b1[i] = 0x11
	}
	for i := range b2 {
		b2[i] = 0x22
	}
	test.Equate(t, int(b1[pageSize-1]), 0x11)
	test.Equate(t, int(b2[0]), 0x22)
}

func TestReset(t *testing.T) {
	pageSize := mem.PageSize()

	a, err := arena.NewArena(pageSize)
	test.ExpectedSuccess(t, err)
	defer a.Free()

	b1, err := a.Alloc(pageSize)
	test.ExpectedSuccess(t, err)
	b1[0] = 0xee

	a.Reset()
	test.Equate(t, a.Used(), 0)

	// after reset the same memory is handed out again
	b2, err := a.Alloc(pageSize)
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(b2[0]), 0xee)
}
