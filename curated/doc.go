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

// Package curated is the error type used throughout the project. Errors are
// created with the Errorf() function and tested against a pattern with the
// Is() and Has() functions.
//
// Packages that fail in ways the caller is expected to act on export their
// patterns as constants. For example, asking the rollback engine for a
// frame outside of the history window:
//
//	err := eng.Rollback(current, target)
//	if curated.Is(err, rollback.TargetOutOfWindow) {
//		// recoverable. memory has not been altered
//	}
//
// Errors created with a wrapping pattern (eg. "mem: %v") keep the wrapped
// error intact, meaning that sentinel errors deep in a chain can be found
// with the Has() function.
package curated
