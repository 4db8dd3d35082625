package engine

import (
	"github.com/skiffchess/skiff/internal/board"
)

// Bound indicates the type of score stored in a table entry.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower       // failed high, score is a lower bound
	BoundUpper       // failed low, score is an upper bound
)

// ttEntry is one slot of the transposition table. The full key is kept so a
// hash collision can never smuggle an illegal move into the search.
type ttEntry struct {
	key   uint64
	move  board.Move
	score int16
	depth int8
	bound Bound
	gen   uint8
}

const ttEntrySize = 24 // bytes per entry, padded

// TransTable caches search results keyed by zobrist hash. The table is owned
// by the single main worker, so no locking is needed.
type TransTable struct {
	entries []ttEntry
	mask    uint64
	gen     uint8
}

// NewTransTable creates a table of roughly sizeMB megabytes.
func NewTransTable(sizeMB int) *TransTable {
	tt := &TransTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table to the given size, dropping all entries.
func (tt *TransTable) Resize(sizeMB int) {
	n := roundDownPow2(uint64(sizeMB) * 1024 * 1024 / ttEntrySize)
	if n == 0 {
		n = 1
	}
	tt.entries = make([]ttEntry, n)
	tt.mask = n - 1
	tt.gen = 0
}

// Clear wipes all entries in place.
func (tt *TransTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = ttEntry{}
	}
	tt.gen = 0
}

// NewSearch advances the generation counter; stale entries lose replacement
// priority.
func (tt *TransTable) NewSearch() {
	tt.gen++
}

// Probe returns the entry for key, if present.
func (tt *TransTable) Probe(key uint64) (ttEntry, bool) {
	e := tt.entries[key&tt.mask]
	if e.key == key {
		return e, true
	}
	return ttEntry{}, false
}

// Store records a search result. Deeper results and results from the current
// generation win ties.
func (tt *TransTable) Store(key uint64, move board.Move, score int, depth int, bound Bound) {
	idx := key & tt.mask
	e := &tt.entries[idx]
	if e.key == key && int(e.depth) > depth && e.gen == tt.gen {
		return
	}
	if move == board.NoMove && e.key == key {
		move = e.move // keep the old best move when the new result has none
	}
	*e = ttEntry{
		key:   key,
		move:  move,
		score: int16(score),
		depth: int8(depth),
		bound: bound,
		gen:   tt.gen,
	}
}

// HashFull estimates the fill rate in permille, sampled the UCI way.
func (tt *TransTable) HashFull() int {
	sample := 1000
	if len(tt.entries) < sample {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].key != 0 && tt.entries[i].gen == tt.gen {
			used++
		}
	}
	return used * 1000 / sample
}

func roundDownPow2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}
