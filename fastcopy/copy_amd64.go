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

package fastcopy

import (
	"golang.org/x/sys/cpu"
)

var hasAVX2 = cpu.X86.HasAVX2

func copyPage(dst, src []byte) {
	if hasAVX2 {
		copyNT(&dst[0], &src[0], len(src))
		return
	}
	copy(dst, src)
}

// copyNT copies n bytes from src to dst with 32-byte non-temporal stores,
// finishing with a store fence. n must be a non-zero multiple of 32 and
// dst must be 32-byte aligned.
//
//go:noescape
func copyNT(dst, src *byte, n int)
