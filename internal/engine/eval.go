package engine

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/skiffchess/skiff/internal/board"
)

// Evaluation constants, in centipawns.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
	DrawScore = 0
)

// PieceValue indexes material values by dragontoothmg piece type (0 unused).
var PieceValue = [7]int{0, 100, 320, 330, 500, 900, 0}

// Piece-square tables, written from white's point of view with the first row
// being rank 8. White squares index with sq^56, black squares directly.
var psqt = map[dragontoothmg.Piece][64]int{
	dragontoothmg.Pawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	dragontoothmg.Knight: {
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	},
	dragontoothmg.Bishop: {
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	},
	dragontoothmg.Rook: {
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	},
	dragontoothmg.Queen: {
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	},
	dragontoothmg.King: {
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	},
}

var pieceOrder = []dragontoothmg.Piece{
	dragontoothmg.Pawn, dragontoothmg.Knight, dragontoothmg.Bishop,
	dragontoothmg.Rook, dragontoothmg.Queen, dragontoothmg.King,
}

var pieceNames = map[dragontoothmg.Piece]string{
	dragontoothmg.Pawn:   "Pawn",
	dragontoothmg.Knight: "Knight",
	dragontoothmg.Bishop: "Bishop",
	dragontoothmg.Rook:   "Rook",
	dragontoothmg.Queen:  "Queen",
	dragontoothmg.King:   "King",
}

func sideBitboard(side *dragontoothmg.Bitboards, pt dragontoothmg.Piece) uint64 {
	switch pt {
	case dragontoothmg.Pawn:
		return side.Pawns
	case dragontoothmg.Knight:
		return side.Knights
	case dragontoothmg.Bishop:
		return side.Bishops
	case dragontoothmg.Rook:
		return side.Rooks
	case dragontoothmg.Queen:
		return side.Queens
	case dragontoothmg.King:
		return side.Kings
	}
	return 0
}

// term is one evaluation component for one side.
type term struct {
	material int
	psqt     int
}

func evalSide(side *dragontoothmg.Bitboards, white bool) map[dragontoothmg.Piece]term {
	terms := make(map[dragontoothmg.Piece]term, 6)
	for _, pt := range pieceOrder {
		bb := sideBitboard(side, pt)
		tbl := psqt[pt]
		t := term{}
		for bb != 0 {
			sq := bits.TrailingZeros64(bb)
			bb &= bb - 1
			t.material += PieceValue[pt]
			if white {
				t.psqt += tbl[sq^56]
			} else {
				t.psqt += tbl[sq]
			}
		}
		terms[pt] = t
	}
	return terms
}

// Evaluate scores the position in centipawns from the side to move's point
// of view.
func Evaluate(p *board.Position) int {
	bd := p.Board()
	score := 0
	for _, t := range evalSide(&bd.White, true) {
		score += t.material + t.psqt
	}
	for _, t := range evalSide(&bd.Black, false) {
		score -= t.material + t.psqt
	}
	if p.SideToMove() == board.Black {
		score = -score
	}
	return score
}

// Trace renders the static evaluation term by term, for the "eval" command.
func Trace(p *board.Position) string {
	bd := p.Board()
	white := evalSide(&bd.White, true)
	black := evalSide(&bd.Black, false)

	var sb strings.Builder
	sb.WriteString("      Term    |    White    |    Black    |    Total\n")
	sb.WriteString("              |  Mat   Psq  |  Mat   Psq  |\n")
	sb.WriteString("--------------+-------------+-------------+---------\n")

	total := 0
	for _, pt := range pieceOrder {
		w, b := white[pt], black[pt]
		net := w.material + w.psqt - b.material - b.psqt
		total += net
		fmt.Fprintf(&sb, "%13s | %5.2f %5.2f | %5.2f %5.2f | %8.2f\n",
			pieceNames[pt],
			cp(w.material), cp(w.psqt), cp(b.material), cp(b.psqt), cp(net))
	}

	sb.WriteString("--------------+-------------+-------------+---------\n")
	fmt.Fprintf(&sb, "Total (white) | %39.2f\n", cp(total))

	stm := total
	if p.SideToMove() == board.Black {
		stm = -stm
	}
	fmt.Fprintf(&sb, "\nEvaluation: %.2f (%s to move)\n", cp(stm), p.SideToMove())
	return sb.String()
}

func cp(v int) float64 {
	return float64(v) / 100
}
