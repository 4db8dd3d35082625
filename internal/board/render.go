package board

import (
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/fatih/color"
)

// Colorize enables ANSI coloring of board dumps. Off by default so that the
// "d" command stays clean when the engine talks to a GUI; the -ansi flag of
// cmd/skiff turns it on for interactive debugging.
var Colorize = false

var (
	whitePaint = color.New(color.FgHiWhite, color.Bold)
	blackPaint = color.New(color.FgHiRed)
)

// PieceChar returns the FEN character of the piece on the given square
// (0..63, a1=0), or '.' for an empty square.
func (p *Position) PieceChar(sq int) byte {
	bb := uint64(1) << uint(sq)
	if c := pieceChar(&p.bd.White, bb, "PNBRQK"); c != 0 {
		return c
	}
	if c := pieceChar(&p.bd.Black, bb, "pnbrqk"); c != 0 {
		return c
	}
	return '.'
}

func pieceChar(side *dragontoothmg.Bitboards, bb uint64, chars string) byte {
	switch {
	case side.Pawns&bb != 0:
		return chars[0]
	case side.Knights&bb != 0:
		return chars[1]
	case side.Bishops&bb != 0:
		return chars[2]
	case side.Rooks&bb != 0:
		return chars[3]
	case side.Queens&bb != 0:
		return chars[4]
	case side.Kings&bb != 0:
		return chars[5]
	}
	return 0
}

// String renders the board as text for the "d" command: the grid, the FEN
// and the zobrist key.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			c := p.PieceChar(rank*8 + file)
			sb.WriteString(paint(c))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.Fen())
	fmt.Fprintf(&sb, "Key: %016X\n", p.Key())
	if p.InCheck() {
		sb.WriteString("Checkers: yes\n")
	}
	return sb.String()
}

func paint(c byte) string {
	if !Colorize || c == '.' {
		return string(c)
	}
	if c >= 'A' && c <= 'Z' {
		return whitePaint.Sprint(string(c))
	}
	return blackPaint.Sprint(string(c))
}
