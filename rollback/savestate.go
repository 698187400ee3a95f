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

package rollback

import (
	"fmt"

	"github.com/jetsetilly/pagerollback/arena"
)

// savestate is a single slot in the history ring, representing the
// post-state of one frame.
//
// dirtyPages and copies are parallel arrays: copies[i] holds the bytes of
// the page at region offset dirtyPages[i] as they stood at the end of the
// stamped frame. every copy is owned by the slot's arena. n is the
// authoritative length of both arrays; entries beyond n are stale.
type savestate struct {
	frame int
	valid bool

	n          int
	dirtyPages []int
	copies     [][]byte

	arena *arena.Arena
}

func newSavestate(maxDirtyPages int, arenaSize int) (*savestate, error) {
	a, err := arena.NewArena(arenaSize)
	if err != nil {
		return nil, err
	}
	return &savestate{
		dirtyPages: make([]int, maxDirtyPages),
		copies:     make([][]byte, maxDirtyPages),
		arena:      a,
	}, nil
}

func (s *savestate) String() string {
	if !s.valid {
		return "-"
	}
	return fmt.Sprintf("%d", s.frame)
}

// wrap an index into the range [0, r). negative values wrap backwards,
// which is how the rollback traversal steps through the ring.
func wrap(x int, r int) int {
	x %= r
	if x < 0 {
		x += r
	}
	return x
}
