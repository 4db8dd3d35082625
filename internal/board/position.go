package board

import (
	"github.com/dylhunn/dragontoothmg"
)

// Color indexes per-side data such as clocks.
type Color int

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns "white" or "black".
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// StartFEN is the FEN string of the standard starting position.
const StartFEN = dragontoothmg.Startpos

// Position is the single mutable board state the command loop operates on.
// It wraps the bitboard move generator and carries the variant flags the
// position was installed with. Handlers share one instance by reference; the
// search works on copies.
type Position struct {
	bd      dragontoothmg.Board
	variant Variant
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p := &Position{}
	p.bd = dragontoothmg.ParseFen(StartFEN)
	return p
}

// Set installs a new position from a FEN string and variant flags, resetting
// the receiver in place. On a malformed FEN the position is left untouched
// and an error is returned.
func (p *Position) Set(fen string, v Variant) error {
	normalized, err := normalizeFEN(fen)
	if err != nil {
		return err
	}
	p.bd = dragontoothmg.ParseFen(normalized)
	p.variant = v
	return nil
}

// Copy returns a deep copy of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// Variant returns the flags the position was installed with.
func (p *Position) Variant() Variant {
	return p.variant
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	if p.bd.Wtomove {
		return White
	}
	return Black
}

// Key returns the zobrist key of the position.
func (p *Position) Key() uint64 {
	return p.bd.Hash()
}

// Fen returns the FEN encoding of the position.
func (p *Position) Fen() string {
	return p.bd.ToFen()
}

// Rule50 returns the halfmove clock.
func (p *Position) Rule50() int {
	return int(p.bd.Halfmoveclock)
}

// FullMove returns the full move counter.
func (p *Position) FullMove() int {
	return int(p.bd.Fullmoveno)
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.bd.OurKingInCheck()
}

// LegalMoves generates all legal moves.
func (p *Position) LegalMoves() []Move {
	return p.bd.GenerateLegalMoves()
}

// IsCapture reports whether the move captures a piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	return dragontoothmg.IsCapture(m, &p.bd)
}

// DoMove applies a legal move permanently and records the resulting snapshot
// in st: the new zobrist key, the halfmove clock and whether the move gave
// check to the now side to move.
func (p *Position) DoMove(m Move, st *StateInfo) {
	p.bd.Apply(m)
	st.Move = m
	st.Key = p.bd.Hash()
	st.Rule50 = int(p.bd.Halfmoveclock)
	st.InCheck = p.bd.OurKingInCheck()
}

// Apply plays a move and returns the closure that takes it back. Used by the
// search, which unlike DoMove needs to rewind.
func (p *Position) Apply(m Move) func() {
	return p.bd.Apply(m)
}

// GivesCheck reports whether the move would leave the opponent in check.
func (p *Position) GivesCheck(m Move) bool {
	cp := p.bd
	cp.Apply(m)
	return cp.OurKingInCheck()
}

// Flip mirrors the position vertically and swaps the colors, a debugging aid
// for checking evaluation symmetry. Variant flags are preserved.
func (p *Position) Flip() {
	p.bd = dragontoothmg.ParseFen(flipFEN(p.bd.ToFen()))
}

// Board exposes the underlying generator board for evaluation.
func (p *Position) Board() *dragontoothmg.Board {
	return &p.bd
}
