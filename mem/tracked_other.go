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

//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!freebsd,!netbsd,!openbsd

package mem

import (
	"github.com/jetsetilly/pagerollback/curated"
)

// AllocPages allocates a page-aligned block of memory of the given size,
// rounded up to a whole number of pages.
//
// On hosts without mmap the block is over-allocated from the Go heap and
// sliced forward to the first page boundary.
func AllocPages(size int) ([]byte, error) {
	pageSize := PageSize()
	size = (size + pageSize - 1) &^ (pageSize - 1)

	b := make([]byte, size+pageSize)
	off := 0
	for !BaseAligned(b[off:]) {
		off++
	}
	b = b[off : off+size]

	if !BaseAligned(b) {
		return nil, curated.Errorf(BadAlignment, baseAddr(b))
	}
	return b, nil
}

// FreePages is a no-op on hosts where AllocPages() allocates from the Go
// heap.
func FreePages(b []byte) error {
	return nil
}
