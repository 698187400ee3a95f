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

package mem

// FNV-1a constants (64 bit variant).
const (
	fnvOffsetBasis = uint64(14695981039346656037)
	fnvPrime       = uint64(1099511628211)
)

// HashBytes returns the FNV-1a hash of data. FNV-1a does the XOR first and
// the prime multiply second, as opposed to FNV-1 which works the other way
// round.
func HashBytes(data []byte) uint64 {
	hash := fnvOffsetBasis
	for _, b := range data {
		hash ^= uint64(b)
		hash *= fnvPrime
	}
	return hash
}

// HashWatcher is the portable write-watch substitute. It detects writes by
// comparing a per-page FNV-1a hash against the hash recorded at the last
// Reset()/TakeDirty(). No kernel support is needed but every call walks
// the whole region.
//
// Because the dirty set is derived purely from page contents the watcher
// is deterministic, which the host facilities are not required to be (a
// kernel is free to over-report). Tests use this watcher for that reason.
type HashWatcher struct {
	region   []byte
	pageSize int
	hashes   []uint64
}

// NewHashWatcher binds a page-hash watcher to the supplied region. The
// initial dirty set is the whole region; callers normally Reset()
// immediately, as the rollback engine does at init.
func NewHashWatcher(region []byte) (*HashWatcher, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	w := &HashWatcher{
		region:   region,
		pageSize: PageSize(),
		hashes:   make([]uint64, len(region)/PageSize()),
	}

	return w, nil
}

// Reset implements the Watcher interface.
func (w *HashWatcher) Reset() error {
	for i := range w.hashes {
		o := i * w.pageSize
		w.hashes[i] = HashBytes(w.region[o : o+w.pageSize])
	}
	return nil
}

// TakeDirty implements the Watcher interface.
//
// A page whose bytes have been rewritten with identical content is not
// reported. This is a stricter notion of "dirty" than a page-table based
// facility provides but it satisfies the same contract: restoring an
// unreported page would be a no-op.
func (w *HashWatcher) TakeDirty(out []int) (int, bool) {
	n := 0
	ok := true

	for i := range w.hashes {
		o := i * w.pageSize
		h := HashBytes(w.region[o : o+w.pageSize])
		if h == w.hashes[i] {
			continue
		}

		// the set is cleared even when out has been exhausted
		w.hashes[i] = h

		if n < len(out) {
			out[n] = o
			n++
		} else {
			ok = false
		}
	}

	if !ok {
		return 0, false
	}
	return n, true
}
