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

// Package rollback is the incremental state rollback engine. At the end of
// every simulated frame the engine captures copies of the memory pages
// that were written during that frame; on demand it reverts the tracked
// region to the state it held at the end of any frame within the history
// window, so the simulation can be re-run from that point with corrected
// inputs.
//
// Savestates live in a ring of HistoryDepth+1 slots indexed by
// frame mod (HistoryDepth+1). Every savestate is an end-of-frame state.
// The extra ring slot is what lets the rollback traversal walk from the
// slot stamped current-2 down to the slot stamped target-1 without the
// two indices colliding when the history is full.
//
// Why current-2 and not current-1: after simulating frame C-1 the program
// sits at the end of frame C-1, which is the same place as the start of
// frame C. Rolling back means undoing the writes that produced that
// state, so the first slot to apply is the one stamped C-2. The final
// application of the slot stamped T-1 leaves memory as it stood at the
// start of frame T, which is where resimulation of frame T begins.
//
// The engine guarantees rollback within the last HistoryDepth frames
// only. There is no baseline snapshot: frames older than the window are
// irrecoverable by design, and eviction of a slot is nothing more than a
// bump-pointer reset of the slot's arena.
package rollback
