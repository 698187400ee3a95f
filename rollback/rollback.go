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

	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/fastcopy"
	"github.com/jetsetilly/pagerollback/jobs"
	"github.com/jetsetilly/pagerollback/logger"
	"github.com/jetsetilly/pagerollback/mem"
)

// error patterns for the rollback package.
const (
	// the requested target frame is outside the history window. memory
	// has not been altered; the caller may continue simulating.
	TargetOutOfWindow = "rollback: target frame out of history window"

	// fewer than HistoryDepth+1 frames have been simulated. memory has
	// not been altered.
	RollbackBeforeWarmup = "rollback: history not warmed up"

	// frame capture failed. fatal: the history window is corrupted and
	// the engine must not be used for rollback again.
	CaptureFailed = "rollback: capture of frame %d failed: %v"
)

// Callbacks give the engine access to the host simulator's memory. The
// engine borrows the tracked region for its lifetime but never owns it.
type Callbacks struct {
	// GameState returns the tracked region. required. the region must be
	// page aligned and a whole number of pages.
	GameState func() []byte

	// GameStateSize returns the byte length of the tracked region.
	// optional; when set it is cross-checked against the region itself.
	GameStateSize func() int

	// GameMemFrame returns a pointer to a u32 inside tracked memory
	// holding the simulator's own frame counter. optional and purely
	// diagnostic: the engine uses it in assertions to detect rollback and
	// resim drift. the location must be written every frame.
	GameMemFrame func() *uint32
}

// Config for NewEngine(). the zero value selects the defaults.
type Config struct {
	// how many frames back the engine can roll. the ring holds
	// HistoryDepth+1 savestates.
	HistoryDepth int

	// capacity of a single frame's capture. a frame that dirties more
	// pages than this is uncapturable, which is fatal.
	MaxDirtyPages int

	// width of the worker pool used for parallel capture and restore.
	// zero selects the default; a negative value disables the pool
	// entirely, with all copying done on the calling goroutine.
	WorkerThreads int

	// write-watch implementation to use. when nil the best facility for
	// the host is selected. tests supply a page-hash watcher here for
	// determinism.
	Watcher mem.Watcher
}

// defaults for the zero Config. sized for a console-emulator-class
// workload: ~170MiB region, ~1500 dirty pages per frame.
const (
	DefHistoryDepth  = 7
	DefMaxDirtyPages = 2000
	DefWorkerThreads = 4
)

func (c *Config) setDefaults() {
	if c.HistoryDepth == 0 {
		c.HistoryDepth = DefHistoryDepth
	}
	if c.MaxDirtyPages == 0 {
		c.MaxDirtyPages = DefMaxDirtyPages
	}
	if c.WorkerThreads == 0 {
		c.WorkerThreads = DefWorkerThreads
	} else if c.WorkerThreads < 0 {
		c.WorkerThreads = 0
	}
}

// Engine is the rollback orchestrator. It is not safe for concurrent use:
// every method must be called from the simulator goroutine, between
// frames.
type Engine struct {
	region   []byte
	memFrame func() *uint32

	watcher mem.Watcher
	pool    *jobs.Pool
	ctx     jobs.Context

	pageSize      int
	historyDepth  int
	maxDirtyPages int

	// ring of HistoryDepth+1 slots indexed by frame mod len(ring)
	ring []*savestate
}

// NewEngine initialises the rollback engine: binds the write-watch
// facility to the tracked region, allocates every slot's arena up front,
// starts the worker pool and clears the dirty set so that the current
// contents of the region are the initial state.
//
// Must be called exactly once before any other operation.
func NewEngine(cb Callbacks, cfg Config) (*Engine, error) {
	cfg.setDefaults()

	if cb.GameState == nil {
		return nil, curated.Errorf("rollback: no GameState callback")
	}
	region := cb.GameState()

	if cb.GameStateSize != nil {
		if size := cb.GameStateSize(); size != len(region) {
			return nil, curated.Errorf("rollback: GameStateSize disagrees with region (%d != %d)", size, len(region))
		}
	}

	e := &Engine{
		region:        region,
		memFrame:      cb.GameMemFrame,
		pageSize:      mem.PageSize(),
		historyDepth:  cfg.HistoryDepth,
		maxDirtyPages: cfg.MaxDirtyPages,
	}

	e.watcher = cfg.Watcher
	if e.watcher == nil {
		var err error
		e.watcher, err = mem.NewWatcher(region)
		if err != nil {
			return nil, curated.Errorf("rollback: %v", err)
		}
	}

	// the ring has one slot more than the history depth. see the package
	// documentation for why
	e.ring = make([]*savestate, cfg.HistoryDepth+1)
	arenaSize := cfg.MaxDirtyPages * e.pageSize
	for i := range e.ring {
		var err error
		e.ring[i], err = newSavestate(cfg.MaxDirtyPages, arenaSize)
		if err != nil {
			return nil, curated.Errorf("rollback: %v", err)
		}
	}

	e.pool = jobs.NewPool(cfg.WorkerThreads)

	// the dirty set accumulated before init is of no interest
	if err := e.watcher.Reset(); err != nil {
		e.Shutdown()
		return nil, curated.Errorf("rollback: %v", err)
	}

	logger.Logf(logger.Allow, "rollback", "init: %d page region, depth %d, %d workers",
		len(region)/e.pageSize, cfg.HistoryDepth, cfg.WorkerThreads)

	return e, nil
}

// Shutdown stops the worker pool and releases every slot's arena. The
// engine must not be used after Shutdown.
func (e *Engine) Shutdown() {
	if e.pool != nil {
		e.pool.Shutdown()
		e.pool = nil
	}
	for _, s := range e.ring {
		if s != nil && s.arena != nil {
			_ = s.arena.Free()
		}
	}
	e.ring = nil
}

// OnFrameEnd captures the pages written during the frame just simulated
// into the ring slot for that frame. isResim must be true only inside a
// rollback/resimulation sequence; it suppresses eviction so that the
// slot's existing arena allocations are reused.
//
// An error from OnFrameEnd is fatal: either the host write-watch facility
// failed or the frame dirtied more than MaxDirtyPages pages.
func (e *Engine) OnFrameEnd(frame int, isResim bool) error {
	slot := e.ring[wrap(frame, len(e.ring))]

	// only evict old savestates when simulating normally. during resim
	// the slot's arena allocations are deliberately kept alive
	if slot.valid && !isResim {
		e.evict(slot)
	}

	slot.frame = frame

	n, ok := e.watcher.TakeDirty(slot.dirtyPages)
	if !ok {
		slot.valid = false
		return curated.Errorf(CaptureFailed, frame, curated.Errorf("too many dirty pages or write-watch error"))
	}
	slot.n = n
	slot.valid = true

	// all arena allocation happens here, before any worker is dispatched.
	// this is the only thing that keeps the single-threaded arena safe
	for i := 0; i < slot.n; i++ {
		if slot.copies[i] == nil {
			c, err := slot.arena.Alloc(e.pageSize)
			if err != nil {
				slot.valid = false
				return curated.Errorf(CaptureFailed, frame, err)
			}
			slot.copies[i] = c
		}
	}

	e.parallel(slot, func(s *savestate, i int) {
		o := s.dirtyPages[i]
		fastcopy.Copy(s.copies[i], e.region[o:o+e.pageSize])
	})

	logger.Logf(logger.Allow, "rollback", "frame %d: %d dirty pages (%.2f MiB)",
		frame, slot.n, float64(slot.n*e.pageSize)/1048576)

	return nil
}

// evict drops a slot's capture. unconditional: there is no baseline to
// roll forward, slots outside the window are simply irrecoverable.
func (e *Engine) evict(slot *savestate) {
	slot.arena.Reset()

	// nil copies are what trigger re-allocation on the next capture.
	// entries beyond n are cleared too: a shorter resim capture leaves
	// non-nil entries there that point into the arena just reset, and
	// keeping them would let a later allocation hand out the same memory
	// twice. dirtyPages can be left as is; n is the authoritative length
	for i := range slot.copies {
		slot.copies[i] = nil
	}
	slot.valid = false
}

// restore copies a slot's captured pages back to their home offsets in
// the tracked region.
func (e *Engine) restore(slot *savestate) {
	e.parallel(slot, func(s *savestate, i int) {
		o := s.dirtyPages[i]
		fastcopy.Copy(e.region[o:o+e.pageSize], s.copies[i])
	})
}

// restoreChecked asserts the slot is part of the live history before
// restoring it. tripping means a caller error in the frame accounting.
func (e *Engine) restoreChecked(slot *savestate, idx int) {
	if !slot.valid {
		panic(fmt.Sprintf("rollback: restoring invalid ring slot %d", idx))
	}
	e.restore(slot)
}

// parallel runs f over the indices [0, slot.n), partitioned into
// contiguous ranges of slot.n/W pages, one per pool worker. the remainder
// pages (slot.n mod W of them) are processed on the calling goroutine
// after dispatch, before the join.
func (e *Engine) parallel(slot *savestate, f func(*savestate, int)) {
	w := e.pool.Width()

	per := 0
	if w > 0 {
		per = slot.n / w
	}

	if per > 0 {
		for i := 0; i < w; i++ {
			start := i * per
			end := start + per
			e.pool.Submit(&e.ctx, func() {
				for idx := start; idx < end; idx++ {
					f(slot, idx)
				}
			})
		}
	}

	for i := per * w; i < slot.n; i++ {
		f(slot, i)
	}

	e.pool.Wait(&e.ctx)
}

// Rollback restores the tracked region to the state it held at the start
// of the target frame (the end of frame target-1). After Rollback returns
// the caller is expected to call ResetWrittenPages() and then resimulate
// frames [target, current), calling OnFrameEnd(f, true) for each.
//
// Returns RollbackBeforeWarmup if fewer than HistoryDepth+1 frames have
// been simulated and TargetOutOfWindow if the target does not satisfy
// 0 <= target < current and current-target <= HistoryDepth. In both cases
// memory is untouched.
func (e *Engine) Rollback(currentFrame int, targetFrame int) error {
	r := len(e.ring)

	if currentFrame < r {
		logger.Logf(logger.Allow, "rollback", "ignoring rollback before warmup (frame %d)", currentFrame)
		return curated.Errorf(RollbackBeforeWarmup)
	}
	if targetFrame < 0 || targetFrame >= currentFrame || currentFrame-targetFrame > e.historyDepth {
		return curated.Errorf(TargetOutOfWindow)
	}

	// how many extra steps beyond the one-frame rewind
	offset := currentFrame - targetFrame - 1

	// the first slot to apply is the one stamped currentFrame-2. see the
	// package documentation for the full frame-boundary argument
	idx := wrap(currentFrame-2, r)
	end := wrap(idx-offset, r)

	logger.Logf(logger.Allow, "rollback", "rolling back %d frames, %d -> %d (ring %v)",
		offset+1, currentFrame, targetFrame, e.ring)

	// the traversal applies offset+1 slots in total. the window check
	// above bounds that at historyDepth, one less than the ring size, so
	// no slot is ever applied twice
	for idx != end {
		e.restoreChecked(e.ring[idx], idx)
		idx = wrap(idx-1, r)
	}

	// applying the slot stamped targetFrame-1 advances one more hop,
	// from the end of targetFrame to its start
	if e.ring[end].frame != targetFrame-1 {
		panic(fmt.Sprintf("rollback: ring slot %d stamped frame %d, expected %d",
			end, e.ring[end].frame, targetFrame-1))
	}
	e.restoreChecked(e.ring[end], end)

	// drift check against the simulator's own frame counter
	if e.memFrame != nil {
		if f := *e.memFrame(); f != uint32(targetFrame-1) {
			panic(fmt.Sprintf("rollback: game mem frame %d after rollback to %d", f, targetFrame))
		}
	}

	return nil
}

// ResetWrittenPages clears the write-watch dirty set. Callers must do
// this after a Rollback() and before resimulating, so that the pages
// touched by the restore itself are not mistaken for simulation writes.
func (e *Engine) ResetWrittenPages() error {
	if err := e.watcher.Reset(); err != nil {
		return curated.Errorf("rollback: %v", err)
	}
	return nil
}
