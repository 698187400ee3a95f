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

// Package fastcopy is the page copy primitive used for capture and
// restore. On amd64 hosts with AVX2 the copy is done with non-temporal
// stores: captured pages are almost never read back on the copying core,
// so streaming past the cache keeps L1/L2 intact for the simulation. A
// store fence after the loop flushes the write-combining buffers before
// any other core can observe the copy as complete.
//
// Everywhere else the copy degrades to the runtime's memmove, which makes
// its own (good) decisions about wide and non-temporal moves.
package fastcopy

import (
	"fmt"
	"unsafe"
)

// Align is the required alignment of both the source and destination
// slices. Copy lengths must be a multiple of it.
const Align = 32

// Copy copies len(src) bytes from src to dst. Both slices must be aligned
// to Align and len(src) must be a non-zero multiple of Align; dst must be
// at least as long as src. The contract is asserted, not reported: a
// violation is a programming error in the caller and halts the process.
//
// Copy performs no synchronisation. Concurrent calls are safe only while
// the source and destination ranges are disjoint from those of every
// other call, which the rollback engine guarantees by construction.
func Copy(dst, src []byte) {
	if len(src) == 0 || len(src)%Align != 0 || len(dst) < len(src) {
		panic(fmt.Sprintf("fastcopy: bad length (dst %d, src %d)", len(dst), len(src)))
	}
	if !aligned(dst) || !aligned(src) {
		panic("fastcopy: misaligned slice")
	}
	copyPage(dst, src)
}

func aligned(b []byte) bool {
	return uintptr(unsafe.Pointer(&b[0]))&(Align-1) == 0
}
