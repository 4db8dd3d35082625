package board

// Variant is a bitset of rule-variant toggles governing the current game.
type Variant uint32

const (
	Chess960 Variant = 1 << iota
	Atomic
	Horde
	Crazyhouse
	KingOfTheHill
	RacingKings
	ThreeCheck
)

// Standard is the empty flag set: ordinary chess.
const Standard Variant = 0

// HordeStartFEN is the starting position of the horde variant.
const HordeStartFEN = "rnbqkbnr/pppppppp/8/1PP2PP1/PPPPPPPP/PPPPPPPP/PPPPPPPP/PPPPPPPP w kq - 0 1"

// VariantOption pairs a UCI option name with the flag it raises.
type VariantOption struct {
	Name string
	Flag Variant
}

// variantOptions lists the toggles this build ships. A variant whose legality
// the move generator cannot express is not offered, so its flag always reads
// zero. The full flag constants stay defined so that flag plumbing and
// start-FEN selection are uniform across builds.
var variantOptions = []VariantOption{
	{"UCI_Chess960", Chess960},
}

// Variants returns the variant toggles offered by this build, in the order
// they should be registered as options.
func Variants() []VariantOption {
	return variantOptions
}

// variantStartFEN maps a variant flag to its starting position, for variants
// that define one. Flags absent from the table start from the standard FEN.
var variantStartFEN = map[Variant]string{
	Horde: HordeStartFEN,
}

// StartingFEN returns the starting position selected by the given flags.
func StartingFEN(v Variant) string {
	for flag, fen := range variantStartFEN {
		if v&flag != 0 {
			return fen
		}
	}
	return StartFEN
}
