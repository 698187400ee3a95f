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

//go:build windows
// +build windows

package monitor

import (
	"os"

	"github.com/jetsetilly/pagerollback/curated"
)

// Command is a user request read from the terminal.
type Command int

// List of valid Command values.
const (
	Quit Command = iota
	Pause
	Rollback
	Dump
	Log
)

// Monitor is not supported on this platform.
type Monitor struct {
	commands chan Command
}

// New always fails: there is no cbreak terminal support on this platform.
func New(input *os.File) (*Monitor, error) {
	return nil, curated.Errorf("monitor: not supported on this platform")
}

// Commands returns the channel on which user commands are delivered.
func (m *Monitor) Commands() <-chan Command {
	return m.commands
}

// Restore is a no-op on this platform.
func (m *Monitor) Restore() {
}
