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

package rollback_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/rollback"
	"github.com/jetsetilly/pagerollback/sim"
	"github.com/jetsetilly/pagerollback/test"
)

func TestRollbackBeforeWarmup(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	// seven frames is one short of filling the ring
	simulate(t, eng, s, region, 0, 7, nil)

	before := mem.HashBytes(region)
	err := eng.Rollback(7, 0)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, rollback.RollbackBeforeWarmup), true)
	test.Equate(t, mem.HashBytes(region), before)
}

func TestSingleFrameRewind(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	digests := make(map[int]uint64)
	simulate(t, eng, s, region, 0, 10, digests)

	// a rollback target must be strictly below the current frame
	before := mem.HashBytes(region)
	err := eng.Rollback(10, 10)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, rollback.TargetOutOfWindow), true)
	test.Equate(t, mem.HashBytes(region), before)

	// the minimal rewind: back to the start of the previous frame
	test.ExpectedSuccess(t, eng.Rollback(10, 9))
	test.Equate(t, mem.HashBytes(region), digests[9])
}

func TestMaximumRewind(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	digests := make(map[int]uint64)
	simulate(t, eng, s, region, 0, 15, digests)

	// the full depth of the history window
	test.ExpectedSuccess(t, eng.Rollback(15, 15-rollback.DefHistoryDepth))
	test.Equate(t, mem.HashBytes(region), digests[15-rollback.DefHistoryDepth])
}

func TestRewindResimDeterminism(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	simulate(t, eng, s, region, 0, 15, nil)
	before := mem.HashBytes(region)

	test.ExpectedSuccess(t, eng.Rollback(15, 10))
	resimulate(t, eng, s, 10, 15)

	// the resimulated timeline is byte-identical to the original
	test.Equate(t, mem.HashBytes(region), before)
}

func TestHeadOfRegionWitness(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	simulate(t, eng, s, region, 0, 14, nil)

	// rolling back to the start of frame 9 leaves the witness showing
	// the end of frame 8
	test.ExpectedSuccess(t, eng.Rollback(14, 9))
	test.Equate(t, binary.LittleEndian.Uint32(region), uint32(8))

	// and the resim walks it forward to the end of frame 13 again
	resimulate(t, eng, s, 9, 14)
	test.Equate(t, binary.LittleEndian.Uint32(region), uint32(13))
}

func TestDirtyPageOverflow(t *testing.T) {
	const capacity = 10

	region, eng := newFixture(t, rollback.Config{MaxDirtyPages: capacity})
	s := sim.NewSynth(region, 2)

	simulate(t, eng, s, region, 0, 5, nil)

	// a frame that touches twice the configured capacity
	pageSize := mem.PageSize()
	for p := 0; p < capacity*2; p++ {
		region[p*pageSize+64] = byte(p + 100)
	}

	err := eng.OnFrameEnd(5, false)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, rollback.CaptureFailed), true)

	// the failed frame is invalid but the prior slots are untouched
	sum := eng.Summary()
	for _, slot := range sum.Slots {
		if slot.Frame == 5 {
			test.Equate(t, slot.Valid, false)
		} else if slot.Frame > 0 {
			test.Equate(t, slot.Valid, true)
		}
	}
}

// the shape of the reference run loop: simulate continuously and every
// fifteenth frame roll back the full window and resimulate it. the fuzz
// simulator writes a different page set every frame, so the check here is
// the one that holds for any deterministic simulator: after rollback plus
// resimulation the timeline is byte-identical to the one it replaced.
func TestDriverLoop(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewFuzz(region, 50, 1)

	for frame := 0; frame < 100; frame++ {
		if frame%15 == 0 && frame > rollback.DefHistoryDepth+1 {
			before := mem.HashBytes(region)
			target := frame - rollback.DefHistoryDepth

			test.ExpectedSuccess(t, eng.Rollback(frame, target))
			test.Equate(t, binary.LittleEndian.Uint32(region), uint32(target-1))

			resimulate(t, eng, s, target, frame)
			test.Equate(t, mem.HashBytes(region), before)
		}

		s.Step(frame)
		test.ExpectedSuccess(t, eng.OnFrameEnd(frame, false))
	}
}
