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
	"encoding/binary"
	"os"

	"github.com/jetsetilly/pagerollback/curated"
)

// the soft-dirty watcher uses the tracking bits the Linux kernel maintains
// for checkpoint/restore: writing "4" to /proc/self/clear_refs clears the
// soft-dirty bit on every page of the process and the current value of the
// bit is readable from /proc/self/pagemap (bit 55 of the per-page entry).
//
// clearing is process wide, which is fine because there is only ever one
// tracked region per process.
const (
	clearRefsPath = "/proc/self/clear_refs"
	pagemapPath   = "/proc/self/pagemap"

	// the command written to clear_refs to clear soft-dirty bits.
	clearSoftDirty = "4"

	softDirtyBit = uint64(1) << 55
)

type softDirtyWatcher struct {
	region   []byte
	pageSize int
	pagemap  *os.File

	// one 8-byte pagemap entry per page of the region.
	entries []byte
}

// newSoftDirtyWatcher binds a soft-dirty watcher to the supplied region.
// Fails with UnsupportedHost when the kernel does not expose functioning
// soft-dirty tracking (CONFIG_MEM_SOFT_DIRTY disabled, or pagemap access
// restricted).
//
// The region must have been validated with checkRegion() by the caller.
func newSoftDirtyWatcher(region []byte) (Watcher, error) {
	pagemap, err := os.Open(pagemapPath)
	if err != nil {
		return nil, curated.Errorf(UnsupportedHost)
	}

	w := &softDirtyWatcher{
		region:   region,
		pageSize: PageSize(),
		pagemap:  pagemap,
		entries:  make([]byte, (len(region)/PageSize())*8),
	}

	if err := w.probe(); err != nil {
		pagemap.Close()
		return nil, err
	}

	return w, nil
}

// probe verifies that soft-dirty tracking actually functions, using a
// scratch page rather than the tracked region (the region belongs to the
// simulator and must not be written to here).
func (w *softDirtyWatcher) probe() error {
	scratch, err := AllocPages(w.pageSize)
	if err != nil {
		return err
	}
	defer FreePages(scratch)

	if err := w.clear(); err != nil {
		return curated.Errorf(UnsupportedHost)
	}

	scratch[0] = 1

	entry, err := w.readEntry(baseAddr(scratch))
	if err != nil || entry&softDirtyBit == 0 {
		return curated.Errorf(UnsupportedHost)
	}

	return nil
}

// clear writes the clear command to clear_refs. the file does not support
// seeking so it is opened fresh for every write.
func (w *softDirtyWatcher) clear() error {
	f, err := os.OpenFile(clearRefsPath, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(clearSoftDirty)
	return err
}

// readEntry reads the single pagemap entry for the page at addr.
func (w *softDirtyWatcher) readEntry(addr uintptr) (uint64, error) {
	var b [8]byte
	_, err := w.pagemap.ReadAt(b[:], int64(addr/uintptr(w.pageSize))*8)
	if err != nil {
		return 0, err
	}
	// pagemap entries are native endian. every linux target this project
	// is expected to run on is little endian
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Reset implements the Watcher interface.
func (w *softDirtyWatcher) Reset() error {
	if err := w.clear(); err != nil {
		return curated.Errorf(WriteWatchFailed, err)
	}
	return nil
}

// TakeDirty implements the Watcher interface.
func (w *softDirtyWatcher) TakeDirty(out []int) (int, bool) {
	base := baseAddr(w.region)

	_, err := w.pagemap.ReadAt(w.entries, int64(base/uintptr(w.pageSize))*8)
	if err != nil {
		_ = w.clear()
		return 0, false
	}

	n := 0
	ok := true
	for i := 0; i < len(w.entries)/8; i++ {
		entry := binary.LittleEndian.Uint64(w.entries[i*8:])
		if entry&softDirtyBit == 0 {
			continue
		}
		if n < len(out) {
			out[n] = i * w.pageSize
			n++
		} else {
			ok = false
		}
	}

	// the set is cleared even on failure
	if err := w.clear(); err != nil {
		return 0, false
	}

	if !ok {
		return 0, false
	}
	return n, true
}
