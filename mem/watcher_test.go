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

package mem_test

import (
	"testing"

	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/test"
)

// exercises whichever watcher NewWatcher() selects for this host. on a
// kernel with soft-dirty support that is the soft-dirty watcher; anywhere
// else the hash fallback, in which case this duplicates the fidelity test.
func TestNativeWatcher(t *testing.T) {
	const numPages = 16

	region, err := mem.AllocPages(mem.PageSize() * numPages)
	test.ExpectedSuccess(t, err)
	defer mem.FreePages(region)

	w, err := mem.NewWatcher(region)
	test.ExpectedSuccess(t, err)
	test.ExpectedSuccess(t, w.Reset())

	for _, p := range []int{11, 3} {
		region[p*mem.PageSize()] = 0xaa
	}

	out := make([]int, numPages)
	n, ok := w.TakeDirty(out)
	test.ExpectedSuccess(t, ok)

	// a native facility may over-report (eg. neighbouring heap activity
	// is impossible here because the region is a dedicated mapping) but
	// it must never under-report and the list must be ascending
	if n < 2 {
		t.Fatalf("under-reported dirty pages (%d)", n)
	}
	for i := 1; i < n; i++ {
		if out[i] <= out[i-1] {
			t.Errorf("dirty list not strictly ascending")
		}
	}

	found := 0
	for i := 0; i < n; i++ {
		if out[i] == 3*mem.PageSize() || out[i] == 11*mem.PageSize() {
			found++
		}
	}
	test.Equate(t, found, 2)
}
