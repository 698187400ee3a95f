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

//go:build linux || darwin || freebsd || netbsd || openbsd
// +build linux darwin freebsd netbsd openbsd

package mem

import (
	"github.com/jetsetilly/pagerollback/curated"
	"golang.org/x/sys/unix"
)

// AllocPages allocates a page-aligned block of anonymous memory of the
// given size, rounded up to a whole number of pages. The returned slice
// satisfies the alignment requirements of the write-watch facility and of
// the fastcopy package.
//
// Blocks allocated with AllocPages() must be returned with FreePages().
func AllocPages(size int) ([]byte, error) {
	pageSize := PageSize()
	size = (size + pageSize - 1) &^ (pageSize - 1)

	b, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, curated.Errorf("mem: %v", err)
	}

	return b, nil
}

// FreePages returns a block allocated with AllocPages() to the OS. All
// slices into the block are invalidated.
func FreePages(b []byte) error {
	if b == nil {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return curated.Errorf("mem: %v", err)
	}
	return nil
}
