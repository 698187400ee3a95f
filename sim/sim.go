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

// Package sim provides synthetic simulators for driving and testing the
// rollback engine. A simulator owns nothing: it mutates a tracked region
// it was given and is deterministic per frame, which is the property the
// engine's resimulation contract depends on.
//
// Every simulator writes the current frame number to the first four bytes
// of the region at the start of every step. That location serves as the
// head-of-region witness: after a rollback to frame T the bytes at offset
// zero must read T-1.
package sim

import (
	"encoding/binary"
	"math/rand"
	"unsafe"

	"github.com/jetsetilly/pagerollback/mem"
)

// Simulator is how the rollback engine's host sees the simulation: an
// opaque frame stepper over a tracked region.
type Simulator interface {
	// Step simulates one frame. calling Step twice with the same frame
	// number produces identical writes, which is what makes
	// resimulation meaningful.
	Step(frame int)
}

// MemFrame returns the diagnostic frame-counter accessor for a region
// driven by the simulators in this package: a pointer to the u32 at
// offset zero.
func MemFrame(region []byte) func() *uint32 {
	return func() *uint32 {
		return (*uint32)(unsafe.Pointer(&region[0]))
	}
}

func writeWitness(region []byte, frame int) {
	binary.LittleEndian.PutUint32(region, uint32(frame))
}

// Synth is the stride-walk simulator. Starting from the middle of the
// region, each write pair puts the frame number in the page-aligned word
// of the current page, advances one and a half pages, and writes the new
// offset itself to the word there (which alternates between a page
// boundary and the middle of a page). The walk covers the region evenly
// and touches a predictable number of distinct pages per frame.
type Synth struct {
	region   []byte
	writes   int
	pageSize int
}

// NewSynth creates a stride-walk simulator performing the given number of
// write pairs per frame.
func NewSynth(region []byte, writesPerFrame int) *Synth {
	return &Synth{
		region:   region,
		writes:   writesPerFrame,
		pageSize: mem.PageSize(),
	}
}

// Step implements the Simulator interface.
func (s *Synth) Step(frame int) {
	writeWitness(s.region, frame)

	// both the starting spot and the stride are multiples of half a
	// page, so every write stays word-safe within the region
	spot := len(s.region) / 2
	for i := 0; i < s.writes; i++ {
		aligned := spot &^ (s.pageSize - 1)
		binary.LittleEndian.PutUint32(s.region[aligned:], uint32(frame))

		spot += s.pageSize + s.pageSize/2
		spot %= len(s.region)
		binary.LittleEndian.PutUint32(s.region[spot:], uint32(spot))
	}
}

// Fuzz is the random-write simulator. The RNG is reseeded from the frame
// number on every step so that, like Synth, a frame resimulates
// identically no matter what happened in between.
type Fuzz struct {
	region []byte
	writes int
	seed   int64
}

// NewFuzz creates a random-write simulator performing the given number of
// writes per frame. The seed distinguishes independent runs; a given
// (seed, frame) pair always produces the same writes.
func NewFuzz(region []byte, writesPerFrame int, seed int64) *Fuzz {
	return &Fuzz{
		region: region,
		writes: writesPerFrame,
		seed:   seed,
	}
}

// Step implements the Simulator interface.
func (f *Fuzz) Step(frame int) {
	writeWitness(f.region, frame)

	// the first word is reserved for the witness
	rnd := rand.New(rand.NewSource(f.seed + int64(frame)))
	for i := 0; i < f.writes; i++ {
		f.region[4+rnd.Intn(len(f.region)-4)] = byte(rnd.Intn(256))
	}
}
