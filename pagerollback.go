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
	"os"
	"time"

	"github.com/jetsetilly/pagerollback/logger"
	"github.com/jetsetilly/pagerollback/modalflag"
	"github.com/jetsetilly/pagerollback/performance"
	"github.com/jetsetilly/pagerollback/rollback"
	"github.com/jetsetilly/pagerollback/statsview"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("RUN", "PERFORMANCE")

	r, err := md.Parse()
	switch r {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RUN":
		err = run(md)
	case "PERFORMANCE":
		err = perform(md)
	}

	if err != nil {
		fmt.Printf("* %v\n", err)
		os.Exit(10)
	}
}

func run(md *modalflag.Modes) error {
	md.NewMode()

	frames := md.AddInt("frames", 100, "number of frames to simulate")
	regionMiB := md.AddInt("region", 170, "size of tracked region in MiB")
	writes := md.AddInt("writes", 1500, "write pairs per simulated frame")
	every := md.AddInt("every", 15, "roll back the full window every n frames (0 to disable)")
	workers := md.AddInt("workers", rollback.DefWorkerThreads, "width of the copy worker pool")
	depth := md.AddInt("depth", rollback.DefHistoryDepth, "history depth in frames")
	interactive := md.AddBool("monitor", false, "single-key control of the run loop")
	memviewFile := md.AddString("memview", "", "write a dot graph of the ring to file on exit")
	echoLog := md.AddBool("log", false, "echo log entries to stderr")

	r, err := md.Parse()
	if r != modalflag.ParseContinue {
		return err
	}

	if *echoLog {
		logger.SetEcho(os.Stderr)
	}

	return runLoop(os.Stdout, runSpec{
		frames:      *frames,
		regionMiB:   *regionMiB,
		writes:      *writes,
		every:       *every,
		interactive: *interactive,
		memviewFile: *memviewFile,
		config: rollback.Config{
			HistoryDepth:  *depth,
			WorkerThreads: *workers,
		},
	})
}

func perform(md *modalflag.Modes) error {
	md.NewMode()

	duration := md.AddDuration("duration", 10*time.Second, "run duration")
	regionMiB := md.AddInt("region", 170, "size of tracked region in MiB")
	writes := md.AddInt("writes", 1500, "write pairs per simulated frame")
	every := md.AddInt("every", 15, "roll back the full window every n frames (0 to disable)")
	workers := md.AddInt("workers", rollback.DefWorkerThreads, "width of the copy worker pool")
	profile := md.AddString("profile", "none", "record profiles: cpu, mem, all")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%t)", statsview.Available()))

	r, err := md.Parse()
	if r != modalflag.ParseContinue {
		return err
	}

	prf, err := performance.ParseProfile(*profile)
	if err != nil {
		return err
	}

	if *stats {
		statsview.Launch(os.Stdout)
	}

	return performance.Check(os.Stdout, prf, performance.CheckSpec{
		RegionMiB:      *regionMiB,
		WritesPerFrame: *writes,
		Duration:       *duration,
		RollbackEvery:  *every,
		Config: rollback.Config{
			WorkerThreads: *workers,
		},
	})
}
