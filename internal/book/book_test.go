package book

import (
	"strings"
	"testing"

	"github.com/skiffchess/skiff/internal/board"
)

func newTestBook(t *testing.T) *Book {
	t.Helper()
	b, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestAddAndProbe(t *testing.T) {
	b := newTestBook(t)
	pos := board.NewPosition()
	m := board.ParseMove(pos, "e2e4")

	if err := b.Add(pos.Key(), m, 1); err != nil {
		t.Fatal(err)
	}

	got, ok := b.Probe(pos)
	if !ok {
		t.Fatal("probe missed a stored position")
	}
	if got != m {
		t.Errorf("got %s want e2e4", board.MoveString(got))
	}
}

func TestProbeUnknownPosition(t *testing.T) {
	b := newTestBook(t)
	pos := board.NewPosition()
	if _, ok := b.Probe(pos); ok {
		t.Error("an empty book should never return a move")
	}
}

func TestWeightAccumulates(t *testing.T) {
	b := newTestBook(t)
	pos := board.NewPosition()
	e4 := board.ParseMove(pos, "e2e4")
	d4 := board.ParseMove(pos, "d2d4")

	for i := 0; i < 3; i++ {
		if err := b.Add(pos.Key(), e4, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Add(pos.Key(), d4, 1); err != nil {
		t.Fatal(err)
	}

	entries, err := b.Entries(pos.Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Move != EncodeMove(e4) || entries[0].Weight != 3 {
		t.Errorf("heaviest entry should be e2e4 x3, got %+v", entries[0])
	}
	if entries[1].Weight != 1 {
		t.Errorf("second entry weight: %d", entries[1].Weight)
	}
}

func TestProbeReturnsOnlyLegalMoves(t *testing.T) {
	b := newTestBook(t)
	pos := board.NewPosition()
	m := board.ParseMove(pos, "e2e4")
	if err := b.Add(pos.Key(), m, 1); err != nil {
		t.Fatal(err)
	}

	// Another position hashing to a different key never sees the entry; a
	// probe with the same key but a board where the move is illegal must
	// reject it.
	other := board.NewPosition()
	var st board.StateInfo
	other.DoMove(board.ParseMove(other, "e2e4"), &st)
	if got, ok := b.Probe(other); ok {
		t.Errorf("probe of a different position returned %s", board.MoveString(got))
	}
}

func TestPromotionRoundTrip(t *testing.T) {
	b := newTestBook(t)
	pos := board.NewPosition()
	if err := pos.Set("8/P6k/8/8/8/8/7K/8 w - - 0 1", board.Standard); err != nil {
		t.Fatal(err)
	}
	m := board.ParseMove(pos, "a7a8q")
	if err := b.Add(pos.Key(), m, 1); err != nil {
		t.Fatal(err)
	}
	got, ok := b.Probe(pos)
	if !ok || board.MoveString(got) != "a7a8q" {
		t.Errorf("promotion did not round-trip: ok=%v move=%s", ok, board.MoveString(got))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	pos := board.NewPosition()
	m := board.ParseMove(pos, "e2e4")

	b, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Add(pos.Key(), m, 7); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	entries, err := b.Entries(pos.Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Weight != 7 {
		t.Errorf("entry did not survive reopen: %v", entries)
	}
}

const samplePGN = `[Event "Test"]
[Site "?"]
[Date "2024.01.01"]
[Round "1"]
[White "Alpha"]
[Black "Beta"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1-0

[Event "Test"]
[Site "?"]
[Date "2024.01.02"]
[Round "2"]
[White "Gamma"]
[Black "Delta"]
[Result "1/2-1/2"]

1. e4 c5 2. Nf3 d6 1/2-1/2
`

func TestImportPGN(t *testing.T) {
	b := newTestBook(t)
	n, err := b.ImportPGN(strings.NewReader(samplePGN), 4)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("imported %d games, want 2", n)
	}

	pos := board.NewPosition()
	entries, err := b.Entries(pos.Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("start position should hold one move, got %d", len(entries))
	}
	if entries[0].Weight != 2 {
		t.Errorf("both games open 1. e4, weight should be 2, got %d", entries[0].Weight)
	}

	// The book holds replies for both defenses after 1. e4.
	var st board.StateInfo
	pos.DoMove(board.ParseMove(pos, "e2e4"), &st)
	entries, err = b.Entries(pos.Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected e7e5 and c7c5, got %d entries", len(entries))
	}

	size, err := b.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size < 3 {
		t.Errorf("book should hold at least 3 positions, got %d", size)
	}
}

func TestImportRespectsPlyLimit(t *testing.T) {
	b := newTestBook(t)
	if _, err := b.ImportPGN(strings.NewReader(samplePGN), 2); err != nil {
		t.Fatal(err)
	}

	// Ply 3 (2. Nf3) must not be recorded.
	pos := board.NewPosition()
	var st board.StateInfo
	pos.DoMove(board.ParseMove(pos, "e2e4"), &st)
	pos.DoMove(board.ParseMove(pos, "e7e5"), &st)
	entries, err := b.Entries(pos.Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("moves past the ply limit were recorded: %v", entries)
	}
}
