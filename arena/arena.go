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

// Package arena implements the bump allocator that backs a savestate's
// page copies. An arena supports Alloc() and Reset() only; there is no
// per-allocation free. Resetting the arena is a single offset assignment,
// which is what makes savestate eviction cheap.
//
// Arenas are not safe for concurrent use. The rollback engine sequences
// every Alloc() before any worker touches the arena's slices.
package arena

import (
	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/mem"
)

// OutOfArena is returned by Alloc() when the backing buffer is exhausted.
// The rollback engine treats it as fatal: it means MaxDirtyPages was
// undersized for the workload.
const OutOfArena = "arena: out of space (%d of %d bytes used)"

// Arena is a bump allocator over a page-aligned backing buffer.
type Arena struct {
	backing []byte
	offset  int
}

// NewArena allocates an arena with a backing buffer of the given size,
// rounded up to a whole number of pages. The backing buffer is page
// aligned, so any allocation of page-sized multiples at page-sized offsets
// is itself page aligned.
func NewArena(size int) (*Arena, error) {
	backing, err := mem.AllocPages(size)
	if err != nil {
		return nil, err
	}
	return &Arena{backing: backing}, nil
}

// Alloc carves the next size bytes from the backing buffer. The returned
// slice aliases the backing buffer and is invalidated by Reset().
func (a *Arena) Alloc(size int) ([]byte, error) {
	if a.offset+size > len(a.backing) {
		return nil, curated.Errorf(OutOfArena, a.offset, len(a.backing))
	}
	b := a.backing[a.offset : a.offset+size : a.offset+size]
	a.offset += size
	return b, nil
}

// Reset sets the bump offset back to zero. All outstanding slices are
// logically invalidated; the memory itself is untouched.
func (a *Arena) Reset() {
	a.offset = 0
}

// Used reports the number of bytes currently allocated.
func (a *Arena) Used() int {
	return a.offset
}

// Free returns the backing buffer to the OS. The arena must not be used
// after Free().
func (a *Arena) Free() error {
	err := mem.FreePages(a.backing)
	a.backing = nil
	a.offset = 0
	return err
}
