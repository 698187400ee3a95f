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

//go:build !windows
// +build !windows

// Package monitor provides single-key control of the synthetic run loop.
// The terminal is put into cbreak mode, meaning key presses are delivered
// immediately without echo or line buffering.
//
// Recognised keys:
//
//	q        quit the run loop
//	p        pause/resume simulation
//	r        roll back the full history window and resimulate
//	d        dump the savestate ring summary
//	l        dump the tail of the central log
//
// The wrapping of the termios calls follows "github.com/pkg/term/termios".
package monitor

import (
	"os"

	"github.com/jetsetilly/pagerollback/curated"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
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

// Monitor reads single-key commands from a terminal in cbreak mode.
type Monitor struct {
	input *os.File

	// terminal attributes: as found, and with cbreak applied
	canAttr    unix.Termios
	cbreakAttr unix.Termios

	commands chan Command
}

// New puts the terminal attached to input into cbreak mode and starts
// reading commands from it. Fails if input is not a terminal.
func New(input *os.File) (*Monitor, error) {
	m := &Monitor{
		input:    input,
		commands: make(chan Command, 1),
	}

	if err := termios.Tcgetattr(input.Fd(), &m.canAttr); err != nil {
		return nil, curated.Errorf("monitor: not a terminal: %v", err)
	}
	m.cbreakAttr = m.canAttr
	termios.Cfmakecbreak(&m.cbreakAttr)

	if err := termios.Tcsetattr(input.Fd(), termios.TCIFLUSH, &m.cbreakAttr); err != nil {
		return nil, curated.Errorf("monitor: %v", err)
	}

	go m.read()

	return m, nil
}

// read loops on the input file, translating key presses to commands. the
// goroutine ends when the input file is closed or the terminal is
// restored and a final read fails.
func (m *Monitor) read() {
	b := make([]byte, 1)
	for {
		n, err := m.input.Read(b)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		switch b[0] {
		case 'q':
			m.commands <- Quit
			return
		case 'p', ' ':
			m.commands <- Pause
		case 'r':
			m.commands <- Rollback
		case 'd':
			m.commands <- Dump
		case 'l':
			m.commands <- Log
		}
	}
}

// Commands returns the channel on which user commands are delivered.
func (m *Monitor) Commands() <-chan Command {
	return m.commands
}

// Restore returns the terminal to the mode it was in before New().
func (m *Monitor) Restore() {
	_ = termios.Tcsetattr(m.input.Fd(), termios.TCIFLUSH, &m.canAttr)
}
