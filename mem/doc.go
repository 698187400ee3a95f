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

// Package mem provides the tracked memory region and the write-watch
// facility that reports which pages of the region have been written to.
//
// A tracked region is a page-aligned, page-sized-multiple block of memory
// allocated with AllocPages(). The region is the "game memory" of the host
// simulation. The rollback engine borrows it for the lifetime of the
// engine but never owns it.
//
// The Watcher interface is the write-watch contract: Reset() clears the
// dirty set, TakeDirty() reads-and-clears it. Two implementations are
// provided:
//
// On Linux the soft-dirty bits of the process page table are used
// (/proc/self/clear_refs and /proc/self/pagemap). This is the nearest
// native equivalent of the Windows GetWriteWatch() facility: the kernel
// records the first write to each page and the bits are read and cleared
// between frames.
//
// On hosts without a native facility the page-hash watcher compares a
// per-page FNV-1a hash at every TakeDirty(). No faults and no kernel
// support needed but the cost is a full read of the region per frame. The
// hash watcher is also fully deterministic which makes it the watcher of
// choice for tests.
//
// NewWatcher() selects the best available implementation for the host.
package mem
