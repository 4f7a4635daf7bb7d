package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BoardSize selects the dimensions of a memory board
type BoardSize int

const (
	Easy BoardSize = iota
	Medium
	Hard
)

const (
	// Validation constants
	MinGameNameLength   = 3
	MaxGameNameLength   = 14
	MaxHistoryLimit     = 100
	WebSocketBufferSize = 256
)

// AllBoardSizes lists every supported board size from smallest to largest
var AllBoardSizes = []BoardSize{Easy, Medium, Hard}

// NumCards returns the number of cards on the board
func (b BoardSize) NumCards() int {
	switch b {
	case Easy:
		return 8
	case Medium:
		return 18
	case Hard:
		return 24
	}
	return 0
}

// NumPairs returns the number of distinct pairs on the board
func (b BoardSize) NumPairs() int {
	return b.NumCards() / 2
}

// Width returns the number of columns
func (b BoardSize) Width() int {
	switch b {
	case Easy:
		return 2
	case Medium:
		return 3
	case Hard:
		return 4
	}
	return 0
}

// Height returns the number of rows
func (b BoardSize) Height() int {
	if b.Width() == 0 {
		return 0
	}
	return b.NumCards() / b.Width()
}

// Valid reports whether b is one of the known sizes
func (b BoardSize) Valid() bool {
	return b >= Easy && b <= Hard
}

func (b BoardSize) String() string {
	switch b {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("BoardSize(%d)", int(b))
}

// Label returns the human readable board description, e.g. "Easy: 4 x 2"
func (b BoardSize) Label() string {
	name := b.String()
	if !b.Valid() {
		return name
	}
	return fmt.Sprintf("%s%s: %d x %d", strings.ToUpper(name[:1]), name[1:], b.Height(), b.Width())
}

// MarshalJSON encodes the size by name
func (b BoardSize) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, int(b))
	}
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts the size name
func (b *BoardSize) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBoardSize, string(data))
	}
	size, err := ParseBoardSize(name)
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// Card is a single slot of the deck
type Card struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url,omitempty"`
	IsFaceUp  bool   `json:"is_face_up"`
	IsMatched bool   `json:"is_matched"`
}

// CardView is the read-only projection of a card handed to presentation code.
// ID and ImageURL are only populated while the card is face-up.
type CardView struct {
	Position  int    `json:"position"`
	ID        string `json:"id,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	IsFaceUp  bool   `json:"is_face_up"`
	IsMatched bool   `json:"is_matched"`
}

// GameConfig describes how a deck is built
type GameConfig struct {
	Name         string    `json:"name,omitempty"`
	BoardSize    BoardSize `json:"board_size"`
	CustomImages []string  `json:"custom_images,omitempty"`
	Seed         uint64    `json:"seed"`
}

// IsCustom reports whether the deck comes from caller supplied images
func (c *GameConfig) IsCustom() bool {
	return len(c.CustomImages) > 0
}

// GameState is a snapshot of an engine, safe to hand to other goroutines
type GameState struct {
	GameName         string     `json:"game_name,omitempty"`
	BoardSize        BoardSize  `json:"board_size"`
	BoardLabel       string     `json:"board_label"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	Cards            []CardView `json:"cards"`
	NumPairs         int        `json:"num_pairs"`
	PairsFound       int        `json:"pairs_found"`
	FlipCount        int        `json:"flip_count"`
	MoveCount        int        `json:"move_count"`
	PendingSelection *int       `json:"pending_selection,omitempty"`
	Won              bool       `json:"won"`
	PairsProgress    string     `json:"pairs_progress"`
	MovesText        string     `json:"moves_text"`
}

// FlipRecord represents a single flip in the game history
type FlipRecord struct {
	FlipNumber int    `json:"flip_number"`
	Position   int    `json:"position"`
	CardID     string `json:"card_id"`
	Matched    bool   `json:"matched"`
	Timestamp  int64  `json:"timestamp"`
}

// CustomGame is a named set of images a player can load as a board
type CustomGame struct {
	Name      string    `json:"name"`
	Images    []string  `json:"images"`
	BoardSize BoardSize `json:"board_size"`
	CreatedAt int64     `json:"created_at,omitempty"`
}
