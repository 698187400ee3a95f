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

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jetsetilly/pagerollback/logger"
	"github.com/jetsetilly/pagerollback/mem"
	"github.com/jetsetilly/pagerollback/memview"
	"github.com/jetsetilly/pagerollback/monitor"
	"github.com/jetsetilly/pagerollback/rollback"
	"github.com/jetsetilly/pagerollback/sim"
)

type runSpec struct {
	frames      int
	regionMiB   int
	writes      int
	every       int
	interactive bool
	memviewFile string
	config      rollback.Config
}

// runLoop is the reference driver: simulate frames continuously and at a
// fixed cadence roll back the full history window and resimulate it, as a
// netcode host would on receiving late inputs.
func runLoop(output io.Writer, spec runSpec) error {
	region, err := mem.AllocPages(spec.regionMiB * 1048576)
	if err != nil {
		return err
	}
	defer mem.FreePages(region)

	s := sim.NewSynth(region, spec.writes)

	eng, err := rollback.NewEngine(rollback.Callbacks{
		GameState:     func() []byte { return region },
		GameStateSize: func() int { return len(region) },
		GameMemFrame:  sim.MemFrame(region),
	}, spec.config)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	depth := spec.config.HistoryDepth
	if depth == 0 {
		depth = rollback.DefHistoryDepth
	}

	var mon *monitor.Monitor
	if spec.interactive {
		mon, err = monitor.New(os.Stdin)
		if err != nil {
			return err
		}
		defer mon.Restore()
		fmt.Fprintln(output, "[q]uit [p]ause [r]ollback [d]ump ring [l]og tail")
	}

	rewind := func(frame int) error {
		target := frame - depth
		if err := eng.Rollback(frame, target); err != nil {
			return err
		}
		if err := eng.ResetWrittenPages(); err != nil {
			return err
		}
		for f := target; f < frame; f++ {
			s.Step(f)
			if err := eng.OnFrameEnd(f, true); err != nil {
				return err
			}
		}
		return nil
	}

	start := time.Now()
	paused := false

	frame := 0
	for frame < spec.frames {
		if mon != nil {
			select {
			case cmd := <-mon.Commands():
				switch cmd {
				case monitor.Quit:
					fmt.Fprintln(output, "quit")
					frame = spec.frames
					continue
				case monitor.Pause:
					paused = !paused
				case monitor.Rollback:
					if frame > depth+1 {
						if err := rewind(frame); err != nil {
							return err
						}
						fmt.Fprintf(output, "rolled back and resimulated frames %d to %d\n", frame-depth, frame-1)
					}
				case monitor.Dump:
					dumpRing(output, eng)
				case monitor.Log:
					logger.Tail(output, 10)
				}
			default:
			}

			if paused {
				time.Sleep(10 * time.Millisecond)
				continue
			}
		}

		if spec.every > 0 && frame%spec.every == 0 && frame > depth+1 {
			if err := rewind(frame); err != nil {
				return err
			}
		}

		s.Step(frame)
		if err := eng.OnFrameEnd(frame, false); err != nil {
			return err
		}
		frame++
	}

	fmt.Fprintf(output, "%d frames in %v\n", spec.frames, time.Since(start).Round(time.Millisecond))

	if spec.memviewFile != "" {
		f, err := os.Create(spec.memviewFile)
		if err != nil {
			return err
		}
		defer f.Close()
		memview.Dump(eng, f)
		fmt.Fprintf(output, "ring graph written to %s\n", spec.memviewFile)
	}

	return nil
}

func dumpRing(output io.Writer, eng *rollback.Engine) {
	sum := eng.Summary()
	for _, slot := range sum.Slots {
		if !slot.Valid {
			fmt.Fprintf(output, "| idx %d = -\t", slot.Index)
			continue
		}
		fmt.Fprintf(output, "| idx %d = frame %d (%d pages)\t", slot.Index, slot.Frame, slot.DirtyPages)
	}
	fmt.Fprintln(output)
}
