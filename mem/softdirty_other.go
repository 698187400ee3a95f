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

//go:build !linux
// +build !linux

package mem

import (
	"github.com/jetsetilly/pagerollback/curated"
)

// only linux has a native write-watch equivalent. other hosts fall back to
// the page-hash watcher in NewWatcher().
func newSoftDirtyWatcher(region []byte) (Watcher, error) {
	return nil, curated.Errorf(UnsupportedHost)
}
