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

package sim_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/sim"
	"github.com/jetsetilly/pagerollback/test"
)

// stepping the same frames over two regions must produce identical bytes.
// resimulation depends on this.
func TestDeterminism(t *testing.T) {
	size := 32 * mem.PageSize()

	a, err := mem.AllocPages(size)
	test.ExpectedSuccess(t, err)
	defer mem.FreePages(a)
	b, err := mem.AllocPages(size)
	test.ExpectedSuccess(t, err)
	defer mem.FreePages(b)

	sa := sim.NewSynth(a, 30)
	sb := sim.NewSynth(b, 30)
	for f := 0; f < 20; f++ {
		sa.Step(f)
		sb.Step(f)
	}
	test.Equate(t, bytes.Equal(a, b), true)

	fa := sim.NewFuzz(a, 100, 99)
	fb := sim.NewFuzz(b, 100, 99)
	for f := 0; f < 20; f++ {
		fa.Step(f)
		fb.Step(f)
	}
	test.Equate(t, bytes.Equal(a, b), true)

	// a frame out of sequence resimulates identically
	fa.Step(7)
	fb.Step(7)
	test.Equate(t, bytes.Equal(a, b), true)
}

func TestWitness(t *testing.T) {
	region, err := mem.AllocPages(8 * mem.PageSize())
	test.ExpectedSuccess(t, err)
	defer mem.FreePages(region)

	s := sim.NewSynth(region, 5)
	s.Step(42)

	test.Equate(t, binary.LittleEndian.Uint32(region), uint32(42))
	test.Equate(t, *sim.MemFrame(region)(), uint32(42))
}
