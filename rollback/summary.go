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

// SlotSummary describes one ring slot for diagnostic display.
type SlotSummary struct {
	Index      int
	Frame      int
	Valid      bool
	DirtyPages int
	ArenaUsed  int
}

// RingSummary describes the state of the savestate ring for diagnostic
// display. It is a copy; holding on to it does not pin the engine.
type RingSummary struct {
	HistoryDepth int
	PageSize     int
	Slots        []SlotSummary
}

// Summary returns a copy of the ring state. Like every other method it
// must only be called from the simulator goroutine, between frames.
func (e *Engine) Summary() RingSummary {
	sum := RingSummary{
		HistoryDepth: e.historyDepth,
		PageSize:     e.pageSize,
		Slots:        make([]SlotSummary, len(e.ring)),
	}
	for i, s := range e.ring {
		sum.Slots[i] = SlotSummary{
			Index:      i,
			Frame:      s.frame,
			Valid:      s.valid,
			DirtyPages: s.n,
			ArenaUsed:  s.arena.Used(),
		}
	}
	return sum
}
