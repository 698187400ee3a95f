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

// Package performance measures the engine against its frame budget: it
// drives the synthetic simulator over a console-emulator-class region and
// reports per-phase timings for capture and rollback. CPU and memory
// profiles of the run can be recorded at the same time.
package performance

import (
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/rollback"
	"github.com/jetsetilly/pagerollback/sim"
)

// CheckSpec parameterises a Check() run.
type CheckSpec struct {
	// size of the tracked region in MiB. the reference workload is 170
	RegionMiB int

	// write pairs per simulated frame. the reference workload dirties
	// about 1500 pages per frame
	WritesPerFrame int

	// how long to run for
	Duration time.Duration

	// engine configuration. the zero value selects the engine defaults
	Config rollback.Config

	// how often to roll back the full window and resimulate, in frames.
	// zero disables rollback during the run
	RollbackEvery int
}

// Check runs the synthetic workload for the specified duration and writes
// a timing summary to output.
func Check(output io.Writer, profile Profile, spec CheckSpec) error {
	region, err := mem.AllocPages(spec.RegionMiB * 1048576)
	if err != nil {
		return err
	}
	defer mem.FreePages(region)

	s := sim.NewSynth(region, spec.WritesPerFrame)

	eng, err := rollback.NewEngine(rollback.Callbacks{
		GameState:     func() []byte { return region },
		GameStateSize: func() int { return len(region) },
		GameMemFrame:  sim.MemFrame(region),
	}, spec.Config)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	depth := spec.Config.HistoryDepth
	if depth == 0 {
		depth = rollback.DefHistoryDepth
	}

	var frames int
	var captureTime time.Duration
	var rollbacks int
	var rollbackTime time.Duration

	runner := func() error {
		deadline := time.Now().Add(spec.Duration)

		frame := 0
		for time.Now().Before(deadline) {
			if spec.RollbackEvery > 0 && frame%spec.RollbackEvery == 0 && frame > depth+1 {
				target := frame - depth

				start := time.Now()
				if err := eng.Rollback(frame, target); err != nil {
					return err
				}
				rollbackTime += time.Since(start)
				rollbacks++

				if err := eng.ResetWrittenPages(); err != nil {
					return err
				}
				for f := target; f < frame; f++ {
					s.Step(f)
					if err := eng.OnFrameEnd(f, true); err != nil {
						return err
					}
				}
			}

			s.Step(frame)

			start := time.Now()
			if err := eng.OnFrameEnd(frame, false); err != nil {
				return err
			}
			captureTime += time.Since(start)

			frame++
			frames++
		}
		return nil
	}

	err = RunProfiler(profile, "rollback", runner)
	if err != nil {
		return err
	}

	if frames == 0 {
		fmt.Fprintln(output, "no frames simulated")
		return nil
	}

	fmt.Fprintf(output, "%d frames in %v (%.1f fps)\n",
		frames, spec.Duration, float64(frames)/spec.Duration.Seconds())
	fmt.Fprintf(output, "capture:  %v per frame\n", captureTime/time.Duration(frames))
	if rollbacks > 0 {
		fmt.Fprintf(output, "rollback: %v per rollback (%d rollbacks of %d frames)\n",
			rollbackTime/time.Duration(rollbacks), rollbacks, depth)
	}

	return nil
}
