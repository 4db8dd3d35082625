// Package tablebase probes the Lichess online endgame tablebase for perfect
// play in positions with few pieces. Lookups go out over HTTP and are rate
// limited by the service, so results are cached by position key and probing
// is off unless the user opts in.
package tablebase

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/skiffchess/skiff/internal/board"
)

// WDL is a win/draw/loss verdict from the side to move's point of view.
// Cursed wins and blessed losses account for the fifty-move rule.
type WDL int

const (
	Loss        WDL = -2
	BlessedLoss WDL = -1
	Draw        WDL = 0
	CursedWin   WDL = 1
	Win         WDL = 2
)

const defaultBaseURL = "https://tablebase.lichess.ovh/standard"

// Prober queries the tablebase service for the best root move.
type Prober struct {
	client    *http.Client
	baseURL   string
	maxPieces int

	mu    sync.Mutex
	cache map[uint64]cached
}

type cached struct {
	move board.Move
	ok   bool
}

// New creates a prober against the public Lichess endpoint, which covers
// positions of up to seven pieces.
func New() *Prober {
	return &Prober{
		client:    &http.Client{Timeout: 5 * time.Second},
		baseURL:   defaultBaseURL,
		maxPieces: 7,
		cache:     make(map[uint64]cached),
	}
}

// NewWithBase creates a prober against a custom endpoint, used in tests.
func NewWithBase(baseURL string) *Prober {
	p := New()
	p.baseURL = baseURL
	return p
}

type response struct {
	Category string `json:"category"`
	DTZ      int    `json:"dtz"`
	Moves    []struct {
		UCI      string `json:"uci"`
		Category string `json:"category"`
		DTZ      int    `json:"dtz"`
	} `json:"moves"`
}

// categoryWDL maps a service category to a WDL verdict. The "maybe" forms
// appear near the fifty-move boundary and are treated as their cursed
// counterparts.
func categoryWDL(cat string) WDL {
	switch cat {
	case "win":
		return Win
	case "maybe-win", "cursed-win":
		return CursedWin
	case "maybe-loss", "blessed-loss":
		return BlessedLoss
	case "loss":
		return Loss
	default:
		return Draw
	}
}

// pieceCount counts all men on the board.
func pieceCount(pos *board.Position) int {
	bd := pos.Board()
	return bits.OnesCount64(bd.White.All | bd.Black.All)
}

// Best returns the tablebase-optimal move for the position, if the position
// is covered. Only standard chess is probed; the service knows nothing about
// variant rules.
func (p *Prober) Best(pos *board.Position) (board.Move, bool) {
	if pos.Variant() != board.Standard || pieceCount(pos) > p.maxPieces {
		return board.NoMove, false
	}

	key := pos.Key()
	p.mu.Lock()
	if c, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return c.move, c.ok
	}
	p.mu.Unlock()

	m, ok := p.probe(pos)

	p.mu.Lock()
	p.cache[key] = cached{move: m, ok: ok}
	p.mu.Unlock()
	return m, ok
}

func (p *Prober) probe(pos *board.Position) (board.Move, bool) {
	// The service takes the FEN with underscores for spaces.
	fen := strings.ReplaceAll(pos.Fen(), " ", "_")
	resp, err := p.client.Get(fmt.Sprintf("%s?fen=%s", p.baseURL, fen))
	if err != nil {
		return board.NoMove, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return board.NoMove, false
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return board.NoMove, false
	}
	if len(r.Moves) == 0 {
		return board.NoMove, false
	}

	// Move categories are given from the opponent's point of view after the
	// move, so the best move is the one that leaves the opponent worst off.
	// Among equal verdicts, prefer the fastest win and the slowest loss.
	bestIdx := -1
	var bestWDL WDL
	var bestDTZ int
	for i, mv := range r.Moves {
		w := categoryWDL(mv.Category)
		if bestIdx < 0 || w < bestWDL || (w == bestWDL && closerToGoal(w, mv.DTZ, bestDTZ)) {
			bestIdx, bestWDL, bestDTZ = i, w, mv.DTZ
		}
	}

	m := board.ParseMove(pos, r.Moves[bestIdx].UCI)
	if m == board.NoMove {
		return board.NoMove, false
	}
	return m, true
}

// closerToGoal compares DTZ values for moves with the same verdict. When the
// opponent is lost we want the smallest distance to zeroing; when we are lost
// we want the largest.
func closerToGoal(w WDL, dtz, bestDTZ int) bool {
	if w < 0 {
		return abs(dtz) < abs(bestDTZ)
	}
	return abs(dtz) > abs(bestDTZ)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
