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

// Package memview writes a graphviz visualisation of the savestate ring.
// Useful when debugging frame accounting problems: the dot output shows
// at a glance which slot is stamped with which frame and how full each
// arena is.
//
// Render with the dot tool:
//
//	pagerollback RUN -memview ring.dot
//	dot -Tsvg ring.dot -o ring.svg
package memview

import (
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/pagerollback/rollback"
)

// Dump writes the dot-graph of the engine's ring to output. Must be
// called from the simulator goroutine, between frames.
func Dump(eng *rollback.Engine, output io.Writer) {
	sum := eng.Summary()
	memviz.Map(output, &sum)
}
