package engine

import "fmt"

// DefaultIcons is the built-in image pool used when no custom images are supplied.
// It must hold at least Hard.NumPairs() entries.
var DefaultIcons = []string{
	"ic_face",
	"ic_flower",
	"ic_gift",
	"ic_heart",
	"ic_home",
	"ic_lightning",
	"ic_moon",
	"ic_plane",
	"ic_school",
	"ic_send",
	"ic_star",
	"ic_work",
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NoShuffle leaves the order untouched. Useful for deterministic boards in tests.
type NoShuffle struct{}

// Shuffle does nothing
func (NoShuffle) Shuffle(int, func(i, j int)) {}

// PairsProgressText formats the pairs counter shown next to the board
func PairsProgressText(found, total int) string {
	return fmt.Sprintf("Pairs: %d / %d", found, total)
}

// MovesText formats the move counter shown next to the board
func MovesText(moves int) string {
	return fmt.Sprintf("Moves: %d", moves)
}

// CountMatched counts the matched cards in a snapshot
func CountMatched(cards []CardView) int {
	count := 0
	for _, card := range cards {
		if card.IsMatched {
			count++
		}
	}
	return count
}

// FaceUpUnmatched returns the positions currently revealed but not yet matched
func FaceUpUnmatched(cards []CardView) []int {
	var positions []int
	for _, card := range cards {
		if card.IsFaceUp && !card.IsMatched {
			positions = append(positions, card.Position)
		}
	}
	return positions
}
