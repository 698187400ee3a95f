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
	"testing"

	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/rollback"
	"github.com/jetsetilly/pagerollback/sim"
	"github.com/jetsetilly/pagerollback/test"
)

// number of pages in the test region and write pairs per synthetic frame.
// small enough to keep the tests quick, large enough that every frame
// dirties a spread of pages.
const (
	testPages  = 64
	testWrites = 20
)

// newFixture builds a tracked region, a deterministic page-hash watcher
// and an engine over them. the hash watcher means the tests behave
// identically on every host.
func newFixture(t *testing.T, cfg rollback.Config) ([]byte, *rollback.Engine) {
	t.Helper()

	region, err := mem.AllocPages(testPages * mem.PageSize())
	test.ExpectedSuccess(t, err)
	t.Cleanup(func() { mem.FreePages(region) })

	w, err := mem.NewHashWatcher(region)
	test.ExpectedSuccess(t, err)
	cfg.Watcher = w

	eng, err := rollback.NewEngine(rollback.Callbacks{
		GameState:     func() []byte { return region },
		GameStateSize: func() int { return len(region) },
		GameMemFrame:  sim.MemFrame(region),
	}, cfg)
	test.ExpectedSuccess(t, err)
	t.Cleanup(eng.Shutdown)

	return region, eng
}

// simulate frames [from, to), recording the digest of the region at the
// *start* of every frame. after simulate() the program is positioned at
// the start of frame 'to'.
func simulate(t *testing.T, eng *rollback.Engine, s sim.Simulator, region []byte, from int, to int, digests map[int]uint64) {
	t.Helper()
	for f := from; f < to; f++ {
		if digests != nil {
			digests[f] = mem.HashBytes(region)
		}
		s.Step(f)
		test.ExpectedSuccess(t, eng.OnFrameEnd(f, false))
	}
}

// resimulate frames [from, to) after a rollback.
func resimulate(t *testing.T, eng *rollback.Engine, s sim.Simulator, from int, to int) {
	t.Helper()
	test.ExpectedSuccess(t, eng.ResetWrittenPages())
	for f := from; f < to; f++ {
		s.Step(f)
		test.ExpectedSuccess(t, eng.OnFrameEnd(f, true))
	}
}

func TestRoundTrip(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	digests := make(map[int]uint64)
	simulate(t, eng, s, region, 0, 15, digests)

	// positioned at the start of frame 15. roll back to the start of
	// frame 10 and expect the bytes recorded there
	test.ExpectedSuccess(t, eng.Rollback(15, 10))
	test.Equate(t, mem.HashBytes(region), digests[10])
}

func TestRingCoverage(t *testing.T) {
	const current = 16

	for delta := 1; delta <= rollback.DefHistoryDepth; delta++ {
		region, eng := newFixture(t, rollback.Config{})
		s := sim.NewSynth(region, testWrites)

		digests := make(map[int]uint64)
		simulate(t, eng, s, region, 0, current, digests)

		target := current - delta
		test.ExpectedSuccess(t, eng.Rollback(current, target))
		test.Equate(t, mem.HashBytes(region), digests[target])
	}

	// one beyond the window fails and leaves memory untouched
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)
	simulate(t, eng, s, region, 0, current, nil)

	before := mem.HashBytes(region)
	err := eng.Rollback(current, current-rollback.DefHistoryDepth-1)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, rollback.TargetOutOfWindow), true)
	test.Equate(t, mem.HashBytes(region), before)
}

func TestIdempotence(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	simulate(t, eng, s, region, 0, 5, nil)

	// a second capture of frame 4 with no intervening writes records an
	// empty dirty set
	test.ExpectedSuccess(t, eng.OnFrameEnd(4, false))

	sum := eng.Summary()
	slot := sum.Slots[4%len(sum.Slots)]
	test.Equate(t, slot.Frame, 4)
	test.Equate(t, slot.Valid, true)
	test.Equate(t, slot.DirtyPages, 0)
}

func TestResimStability(t *testing.T) {
	region, eng := newFixture(t, rollback.Config{})
	s := sim.NewSynth(region, testWrites)

	simulate(t, eng, s, region, 0, 15, nil)

	test.ExpectedSuccess(t, eng.Rollback(15, 11))
	afterFirst := mem.HashBytes(region)

	resimulate(t, eng, s, 11, 15)

	// the resim rewrote the identical history so a second rollback to
	// the same target lands on the same bytes
	test.ExpectedSuccess(t, eng.Rollback(15, 11))
	test.Equate(t, mem.HashBytes(region), afterFirst)
}

func TestWorkerEquivalence(t *testing.T) {
	var reference uint64

	for i, workers := range []int{-1, 1, 2, 4, 8} {
		region, eng := newFixture(t, rollback.Config{WorkerThreads: workers})
		s := sim.NewSynth(region, testWrites)

		simulate(t, eng, s, region, 0, 15, nil)
		test.ExpectedSuccess(t, eng.Rollback(15, 9))
		resimulate(t, eng, s, 9, 15)

		d := mem.HashBytes(region)
		if i == 0 {
			reference = d
		} else {
			test.Equate(t, d, reference)
		}
	}
}

func TestCallbackValidation(t *testing.T) {
	region, err := mem.AllocPages(testPages * mem.PageSize())
	test.ExpectedSuccess(t, err)
	defer mem.FreePages(region)

	// missing GameState
	_, err = rollback.NewEngine(rollback.Callbacks{}, rollback.Config{})
	test.ExpectedFailure(t, err)

	// GameStateSize disagreeing with the region
	w, err := mem.NewHashWatcher(region)
	test.ExpectedSuccess(t, err)
	_, err = rollback.NewEngine(rollback.Callbacks{
		GameState:     func() []byte { return region },
		GameStateSize: func() int { return len(region) - 1 },
	}, rollback.Config{Watcher: w})
	test.ExpectedFailure(t, err)
}
