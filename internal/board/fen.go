package board

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeFEN validates the fields the generator assumes are well formed and
// fills in the optional clock fields when a controller omits them. The
// returned string always carries all six fields.
func normalizeFEN(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid FEN %q: need at least 4 fields, got %d", fen, len(parts))
	}

	if err := validatePlacement(parts[0]); err != nil {
		return "", fmt.Errorf("invalid FEN %q: %w", fen, err)
	}

	if parts[1] != "w" && parts[1] != "b" {
		return "", fmt.Errorf("invalid FEN %q: bad side to move %q", fen, parts[1])
	}

	if parts[2] != "-" {
		for _, c := range parts[2] {
			if !strings.ContainsRune("KQkqABCDEFGHabcdefgh", c) {
				return "", fmt.Errorf("invalid FEN %q: bad castling field %q", fen, parts[2])
			}
		}
	}

	if parts[3] != "-" {
		sq := parts[3]
		if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || (sq[1] != '3' && sq[1] != '6') {
			return "", fmt.Errorf("invalid FEN %q: bad en passant square %q", fen, sq)
		}
	}

	for i := 4; i < 6 && i < len(parts); i++ {
		if _, err := strconv.Atoi(parts[i]); err != nil {
			return "", fmt.Errorf("invalid FEN %q: bad clock field %q", fen, parts[i])
		}
	}

	switch len(parts) {
	case 4:
		parts = append(parts, "0", "1")
	case 5:
		parts = append(parts, "1")
	}
	return strings.Join(parts[:6], " "), nil
}

// validatePlacement checks the piece placement field: eight ranks of eight
// squares and exactly one king per side.
func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("need 8 ranks, got %d", len(ranks))
	}

	kings := [2]int{}
	for i, rank := range ranks {
		files := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				files += int(c - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", c):
				if c == 'K' {
					kings[0]++
				} else if c == 'k' {
					kings[1]++
				}
				files++
			default:
				return fmt.Errorf("bad piece character %q", c)
			}
		}
		if files != 8 {
			return fmt.Errorf("rank %d has %d squares", 8-i, files)
		}
	}
	if kings[0] != 1 || kings[1] != 1 {
		return fmt.Errorf("need exactly one king per side, got %d white and %d black", kings[0], kings[1])
	}
	return nil
}

// flipFEN mirrors a FEN vertically and swaps the colors: ranks are reversed,
// piece and castling letters change case and the en passant rank is
// reflected. Clocks are preserved.
func flipFEN(fen string) string {
	parts := strings.Fields(fen)

	ranks := strings.Split(parts[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	parts[0] = swapCase(strings.Join(ranks, "/"))

	if parts[1] == "w" {
		parts[1] = "b"
	} else {
		parts[1] = "w"
	}

	if parts[2] != "-" {
		parts[2] = sortCastling(swapCase(parts[2]))
	}

	if parts[3] != "-" {
		sq := []byte(parts[3])
		if sq[1] == '3' {
			sq[1] = '6'
		} else {
			sq[1] = '3'
		}
		parts[3] = string(sq)
	}

	return strings.Join(parts, " ")
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}

// sortCastling restores the conventional KQkq ordering after a case swap.
func sortCastling(s string) string {
	var out strings.Builder
	for _, c := range "KQkq" {
		if strings.ContainsRune(s, c) {
			out.WriteRune(c)
		}
	}
	if out.Len() == 0 {
		return "-"
	}
	return out.String()
}
