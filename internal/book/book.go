// Package book is a persistent opening book backed by BadgerDB. Positions
// are keyed by zobrist hash; each key stores a weighted move list that Probe
// samples, so the engine varies its openings between games.
package book

import (
	"encoding/binary"
	"math/rand"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dylhunn/dragontoothmg"
	"github.com/skiffchess/skiff/internal/board"
)

// Entry is one stored move with its weight. The move is kept in the compact
// from/to/promotion encoding, not the generator's; Probe re-derives the real
// move by matching against the legal moves of the probed position.
type Entry struct {
	Move   uint16
	Weight uint16
}

// Book wraps the Badger store.
type Book struct {
	db *badger.DB
}

// Open opens (or creates) a book at the given directory.
func Open(dir string) (*Book, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Book{db: db}, nil
}

// OpenInMemory opens a throwaway in-memory book, used in tests.
func OpenInMemory() (*Book, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Book{db: db}, nil
}

// Close closes the store.
func (b *Book) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// EncodeMove packs a move into 16 bits: to | from<<6 | promo<<12, with the
// promotion codes of the Polyglot format (1=knight .. 4=queen).
func EncodeMove(m board.Move) uint16 {
	v := uint16(m.To()) | uint16(m.From())<<6
	switch m.Promote() {
	case dragontoothmg.Knight:
		v |= 1 << 12
	case dragontoothmg.Bishop:
		v |= 2 << 12
	case dragontoothmg.Rook:
		v |= 3 << 12
	case dragontoothmg.Queen:
		v |= 4 << 12
	}
	return v
}

// matchMove finds the legal move in pos matching an encoded book move, or
// NoMove when the entry does not fit the position (a hash collision or a
// corrupt record).
func matchMove(pos *board.Position, data uint16) board.Move {
	to := uint8(data & 0x3f)
	from := uint8((data >> 6) & 0x3f)
	var promo dragontoothmg.Piece
	switch (data >> 12) & 0x7 {
	case 1:
		promo = dragontoothmg.Knight
	case 2:
		promo = dragontoothmg.Bishop
	case 3:
		promo = dragontoothmg.Rook
	case 4:
		promo = dragontoothmg.Queen
	}
	for _, lm := range pos.LegalMoves() {
		if uint8(lm.From()) == from && uint8(lm.To()) == to && lm.Promote() == promo {
			return lm
		}
	}
	return board.NoMove
}

func keyBytes(key uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], key)
	return k[:]
}

func decodeEntries(val []byte) []Entry {
	entries := make([]Entry, 0, len(val)/4)
	for i := 0; i+4 <= len(val); i += 4 {
		entries = append(entries, Entry{
			Move:   binary.BigEndian.Uint16(val[i:]),
			Weight: binary.BigEndian.Uint16(val[i+2:]),
		})
	}
	return entries
}

func encodeEntries(entries []Entry) []byte {
	val := make([]byte, 4*len(entries))
	for i, e := range entries {
		binary.BigEndian.PutUint16(val[4*i:], e.Move)
		binary.BigEndian.PutUint16(val[4*i+2:], e.Weight)
	}
	return val
}

// Add records a move for the position with the given key, accumulating the
// weight if the move is already stored.
func (b *Book) Add(key uint64, m board.Move, weight uint16) error {
	enc := EncodeMove(m)
	return b.db.Update(func(txn *badger.Txn) error {
		var entries []Entry
		item, err := txn.Get(keyBytes(key))
		if err == nil {
			err = item.Value(func(val []byte) error {
				entries = decodeEntries(val)
				return nil
			})
		}
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}

		found := false
		for i := range entries {
			if entries[i].Move == enc {
				w := uint32(entries[i].Weight) + uint32(weight)
				if w > 0xffff {
					w = 0xffff
				}
				entries[i].Weight = uint16(w)
				found = true
				break
			}
		}
		if !found {
			entries = append(entries, Entry{Move: enc, Weight: weight})
		}
		return txn.Set(keyBytes(key), encodeEntries(entries))
	})
}

// Entries returns the stored moves for a key, heaviest first.
func (b *Book) Entries(key uint64) ([]Entry, error) {
	var entries []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBytes(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entries = decodeEntries(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Weight > entries[j].Weight })
	return entries, nil
}

// Probe looks the position up and returns a legal book move by weighted
// random selection.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}
	entries, err := b.Entries(pos.Key())
	if err != nil || len(entries) == 0 {
		return board.NoMove, false
	}

	total := uint32(0)
	for _, e := range entries {
		total += uint32(e.Weight)
	}
	pick := uint32(0)
	if total > 0 {
		pick = rand.Uint32() % total
	}

	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if pick < cumulative {
			if m := matchMove(pos, e.Move); m != board.NoMove {
				return m, true
			}
			// Entry does not fit this position; fall through to the rest.
		}
	}
	for _, e := range entries {
		if m := matchMove(pos, e.Move); m != board.NoMove {
			return m, true
		}
	}
	return board.NoMove, false
}

// Size returns the number of stored positions.
func (b *Book) Size() (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
