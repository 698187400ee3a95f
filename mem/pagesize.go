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

package mem

import (
	"os"
	"unsafe"
)

// VectorAlign is the alignment required by the fastcopy package. The
// tracked region and all page copies must be aligned to at least this
// value. Page alignment trivially satisfies it.
const VectorAlign = 32

var cachedPageSize int

// PageSize reports the host page size. The value is queried from the OS
// once and cached.
func PageSize() int {
	if cachedPageSize == 0 {
		cachedPageSize = os.Getpagesize()
	}
	return cachedPageSize
}

// PageAligned is true if off is a multiple of the host page size.
func PageAligned(off int) bool {
	return off&(PageSize()-1) == 0
}

// baseAddr returns the virtual address of the first byte of b.
func baseAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// BaseAligned is true if the first byte of b lies on a page boundary.
func BaseAligned(b []byte) bool {
	return baseAddr(b)&uintptr(PageSize()-1) == 0
}
