package tablebase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skiffchess/skiff/internal/board"
)

// kqkFEN is KQ vs K, white to move, with d5d7 the fastest mate.
const kqkFEN = "3k4/8/8/3Q4/8/8/8/4K3 w - - 0 1"

func fakeService(t *testing.T, body string) *Prober {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fen") == "" {
			http.Error(w, "missing fen", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewWithBase(srv.URL)
}

func TestBestPicksTheWorstForTheOpponent(t *testing.T) {
	p := fakeService(t, `{
		"category": "win",
		"dtz": 5,
		"moves": [
			{"uci": "d5a5", "category": "win", "dtz": -9},
			{"uci": "d5d7", "category": "loss", "dtz": -2},
			{"uci": "d5h5", "category": "draw", "dtz": 0}
		]
	}`)

	pos := board.NewPosition()
	if err := pos.Set(kqkFEN, board.Standard); err != nil {
		t.Fatal(err)
	}
	m, ok := p.Best(pos)
	if !ok {
		t.Fatal("probe failed")
	}
	if got := board.MoveString(m); got != "d5d7" {
		t.Errorf("best move %s, want d5d7", got)
	}
}

func TestBestSkipsFullBoards(t *testing.T) {
	p := fakeService(t, `{}`)
	pos := board.NewPosition()
	if _, ok := p.Best(pos); ok {
		t.Error("the starting position has too many pieces to probe")
	}
}

func TestBestCachesByKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"category":"win","dtz":3,"moves":[{"uci":"d5d7","category":"loss","dtz":-2}]}`))
	}))
	t.Cleanup(srv.Close)
	p := NewWithBase(srv.URL)

	pos := board.NewPosition()
	if err := pos.Set(kqkFEN, board.Standard); err != nil {
		t.Fatal(err)
	}
	p.Best(pos)
	p.Best(pos)
	if calls != 1 {
		t.Errorf("second probe should be served from the cache, saw %d calls", calls)
	}
}

func TestBestRejectsServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	p := NewWithBase(srv.URL)

	pos := board.NewPosition()
	if err := pos.Set(kqkFEN, board.Standard); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Best(pos); ok {
		t.Error("a service error must not produce a move")
	}
}

func TestCategoryWDL(t *testing.T) {
	cases := map[string]WDL{
		"win":          Win,
		"maybe-win":    CursedWin,
		"cursed-win":   CursedWin,
		"draw":         Draw,
		"unknown":      Draw,
		"blessed-loss": BlessedLoss,
		"maybe-loss":   BlessedLoss,
		"loss":         Loss,
	}
	for cat, want := range cases {
		if got := categoryWDL(cat); got != want {
			t.Errorf("categoryWDL(%q) = %d, want %d", cat, got, want)
		}
	}
}
