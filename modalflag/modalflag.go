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

// Package modalflag layers sub-modes on top of the flag package from the
// standard library. The program is given its arguments with NewArgs();
// each layer of parsing then declares its flags and sub-modes and calls
// Parse(). The first sub-mode in the declared list is the default, used
// when the first non-flag argument matches no sub-mode.
//
// Sub-mode comparison is case insensitive.
package modalflag

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Modes is the parser state threaded through every layer of command line
// processing. The Output field should be set before calling Parse() or
// help messages will not be seen.
type Modes struct {
	// where to print help messages etc.
	Output io.Writer

	// the underlying flagset. recreated on every call to NewMode()
	flags *flag.FlagSet

	// the argument list and how far into it parsing has progressed
	args    []string
	argsIdx int

	// sub-modes declared for the next Parse()
	subModes []string

	// the series of sub-modes encountered over subsequent calls to
	// Parse(). never reset
	path []string
}

// ParseResult is returned from the Parse() function.
type ParseResult int

// List of valid ParseResult values.
const (
	// continue with command line processing. if sub-modes were declared
	// then the Mode() function says which one was selected
	ParseContinue ParseResult = iota

	// help was requested and has been printed
	ParseHelp

	// an error occurred and is returned as the second return value
	ParseError
)

// NewArgs initialises the parser with a list of arguments (from the
// command line, typically os.Args[1:]).
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.argsIdx = 0
	md.NewMode()
}

// NewMode indicates that further arguments are to be considered part of a
// new (sub-)mode.
func (md *Modes) NewMode() {
	md.subModes = md.subModes[:0]
	md.flags = flag.NewFlagSet("", flag.ContinueOnError)
}

// AddSubModes declares the sub-modes for the next call to Parse(). The
// first in the list is the default.
func (md *Modes) AddSubModes(submodes ...string) {
	for _, m := range submodes {
		md.subModes = append(md.subModes, strings.ToUpper(m))
	}
}

// Mode returns the last mode encountered by Parse().
func (md *Modes) Mode() string {
	if len(md.path) == 0 {
		return ""
	}
	return md.path[len(md.path)-1]
}

// Path returns all the modes encountered during parsing.
func (md *Modes) Path() string {
	return strings.Join(md.path, "/")
}

func (md *Modes) String() string {
	return md.Path()
}

// Parse the current layer of arguments.
func (md *Modes) Parse() (ParseResult, error) {
	// suppress the flag package's own output; help is assembled below
	var quiet strings.Builder
	md.flags.SetOutput(&quiet)

	err := md.flags.Parse(md.args[md.argsIdx:])
	if err != nil {
		if err == flag.ErrHelp {
			md.help()
			return ParseHelp, nil
		}
		return ParseError, err
	}

	if len(md.subModes) > 0 {
		// the default sub-mode, used when the first argument matches
		// nothing in the declared list
		mode := md.subModes[0]

		arg := strings.ToUpper(md.flags.Arg(0))
		for _, m := range md.subModes {
			if m == arg {
				mode = arg
				md.argsIdx++
				break // for loop
			}
		}

		md.path = append(md.path, mode)
	}

	return ParseContinue, nil
}

func (md *Modes) help() {
	if md.Output == nil {
		return
	}

	if len(md.subModes) > 0 {
		fmt.Fprintf(md.Output, "available sub-modes: %s\n", strings.Join(md.subModes, ", "))
		fmt.Fprintf(md.Output, "  default: %s\n", md.subModes[0])
	}

	n := 0
	md.flags.VisitAll(func(_ *flag.Flag) { n++ })
	if n > 0 {
		fmt.Fprintln(md.Output, "available flags:")
		md.flags.SetOutput(md.Output)
		md.flags.PrintDefaults()
	}
}

// RemainingArgs returns the arguments that are not flags or a listed
// sub-mode.
func (md *Modes) RemainingArgs() []string {
	return md.flags.Args()
}

// GetArg returns the numbered argument that isn't a flag or listed
// sub-mode.
func (md *Modes) GetArg(i int) string {
	return md.flags.Arg(i)
}

// AddBool flag for next call to Parse().
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

// AddInt flag for next call to Parse().
func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

// AddString flag for next call to Parse().
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}

// AddDuration flag for next call to Parse().
func (md *Modes) AddDuration(name string, value time.Duration, usage string) *time.Duration {
	return md.flags.Duration(name, value, usage)
}
