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

// Package test contains helper functions to remove common boilerplate to
// make testing easier.
//
// The ExpectedFailure and ExpectedSuccess functions test for failure and
// success under generic conditions. Note that the nil type is considered a
// success, consistent with how errors work (nil to indicate no error).
//
// The Equate() function compares like-typed variables for equality. Some
// types (eg. uint32) can be compared against int for convenience, saving a
// cast at the call site when the expected value is a literal.
package test
