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

package mem

import (
	"github.com/jetsetilly/pagerollback/curated"
	"github.com/jetsetilly/pagerollback/logger"
)

// error patterns for the mem package.
const (
	// the host OS exposes no write-watch facility.
	UnsupportedHost = "mem: no write-watch facility on this host"

	// the supplied region is not page aligned or not a whole number of
	// pages.
	BadAlignment = "mem: region not page aligned: %v"

	// the host write-watch facility failed. treated as fatal by the
	// rollback engine.
	WriteWatchFailed = "mem: write-watch failed: %v"
)

// Watcher is the write-watch contract. A watcher is bound to one tracked
// region at creation.
//
// Dirty pages are reported as byte offsets from the start of the region.
// The offsets returned by TakeDirty() are strictly ascending and every
// offset is page aligned and within the region.
//
// Watchers are not safe for concurrent use. The rollback engine only calls
// them between frames, with the simulator quiesced.
type Watcher interface {
	// Reset clears the dirty set. The only observable side effect is the
	// set going empty.
	Reset() error

	// TakeDirty atomically reads the current dirty-page list into out and
	// clears the set, returning the number of entries written. Returns
	// false if the host reports more dirty pages than len(out) or if the
	// facility errors. In that case the caller must treat the frame as
	// uncapturable. The set is cleared even on failure.
	TakeDirty(out []int) (int, bool)
}

// NewWatcher binds the best available write-watch implementation for this
// host to the supplied region.
//
// Fails with BadAlignment if the region is not page aligned or not a whole
// number of pages, and with UnsupportedHost if no write-watch facility is
// available.
func NewWatcher(region []byte) (Watcher, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	w, err := newSoftDirtyWatcher(region)
	if err == nil {
		logger.Log(logger.Allow, "mem", "using soft-dirty write-watch")
		return w, nil
	}
	logger.Logf(logger.Allow, "mem", "soft-dirty unavailable (%v), falling back to page hashing", err)

	return NewHashWatcher(region)
}

func checkRegion(region []byte) error {
	if len(region) == 0 || !PageAligned(len(region)) {
		return curated.Errorf(BadAlignment, len(region))
	}
	if !BaseAligned(region) {
		return curated.Errorf(BadAlignment, baseAddr(region))
	}
	return nil
}
