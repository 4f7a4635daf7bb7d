package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Flip operations
	Flip(position int) (bool, error)

	// Card queries
	IsFaceUp(position int) (bool, error)
	IsMatched(position int) (bool, error)
	Cards() []Card
	PendingSelection() (int, bool)

	// Progress
	HasWon() bool
	MoveCount() int
	FlipCount() int
	PairsFound() int
	NumPairs() int
	BoardSize() BoardSize

	// Snapshots and configuration
	GetState() *GameState
	GetConfig() *GameConfig

	// History
	GetFlipHistory() []FlipRecord
	GetLastFlip() *FlipRecord
}

// noSelection marks the absence of a pending card
const noSelection = -1

// GameEngine implements the Engine interface.
// It is not safe for concurrent use; callers serialize access per game.
type GameEngine struct {
	config       *GameConfig
	cards        []Card
	numPairFound int
	numCardFlips int
	pending      int
	history      []FlipRecord
	now          func() time.Time
}

// NewEngine creates a new game engine whose deck is shuffled from config.Seed
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return NewEngineWithShuffler(config, newSeededRand(config.Seed))
}

// NewEngineWithShuffler creates a new game engine using the given shuffler for deck generation
func NewEngineWithShuffler(config *GameConfig, shuffler Shuffler) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if shuffler == nil {
		shuffler = newSeededRand(config.Seed)
	}

	engine := &GameEngine{
		config:  cloneConfig(config),
		cards:   buildDeck(config, shuffler),
		pending: noSelection,
		history: []FlipRecord{},
		now:     time.Now,
	}

	return engine, nil
}

// Replay rebuilds an engine from its configuration and a recorded flip history.
// The seed in config reproduces the original deck, so replaying yields the same state.
func Replay(config *GameConfig, history []FlipRecord) (*GameEngine, error) {
	engine, err := NewEngine(config)
	if err != nil {
		return nil, err
	}

	for i, record := range history {
		if _, err := engine.Flip(record.Position); err != nil {
			return nil, fmt.Errorf("replay flip %d: %w", i+1, err)
		}
		if record.Timestamp != 0 {
			engine.history[len(engine.history)-1].Timestamp = record.Timestamp
		}
	}

	return engine, nil
}

// NewSeed returns a random seed for a fresh deck
func NewSeed() uint64 {
	return rand.Uint64()
}

// IsFaceUp returns whether the card at position is face-up
func (e *GameEngine) IsFaceUp(position int) (bool, error) {
	if err := e.checkPosition(position); err != nil {
		return false, err
	}
	return e.cards[position].IsFaceUp, nil
}

// IsMatched returns whether the card at position has been matched
func (e *GameEngine) IsMatched(position int) (bool, error) {
	if err := e.checkPosition(position); err != nil {
		return false, err
	}
	return e.cards[position].IsMatched, nil
}

// Cards returns a copy of the deck
func (e *GameEngine) Cards() []Card {
	cards := make([]Card, len(e.cards))
	copy(cards, e.cards)
	return cards
}

// PendingSelection returns the position awaiting a second flip, if any
func (e *GameEngine) PendingSelection() (int, bool) {
	if e.pending == noSelection {
		return 0, false
	}
	return e.pending, true
}

// HasWon returns whether every pair has been found
func (e *GameEngine) HasWon() bool {
	return e.numPairFound == e.config.BoardSize.NumPairs()
}

// MoveCount returns the number of completed two-flip moves
func (e *GameEngine) MoveCount() int {
	return e.numCardFlips / 2
}

// FlipCount returns the total number of flips
func (e *GameEngine) FlipCount() int {
	return e.numCardFlips
}

// PairsFound returns the number of matched pairs
func (e *GameEngine) PairsFound() int {
	return e.numPairFound
}

// NumPairs returns the number of pairs on the board
func (e *GameEngine) NumPairs() int {
	return e.config.BoardSize.NumPairs()
}

// BoardSize returns the board size of this game
func (e *GameEngine) BoardSize() BoardSize {
	return e.config.BoardSize
}

// GetConfig returns a copy of the configuration the deck was built from
func (e *GameEngine) GetConfig() *GameConfig {
	return cloneConfig(e.config)
}

// GetState returns a read-only snapshot of the game
func (e *GameEngine) GetState() *GameState {
	size := e.config.BoardSize
	views := make([]CardView, len(e.cards))
	for i, card := range e.cards {
		views[i] = viewOf(i, card)
	}

	state := &GameState{
		GameName:      e.config.Name,
		BoardSize:     size,
		BoardLabel:    size.Label(),
		Width:         size.Width(),
		Height:        size.Height(),
		Cards:         views,
		NumPairs:      size.NumPairs(),
		PairsFound:    e.numPairFound,
		FlipCount:     e.numCardFlips,
		MoveCount:     e.MoveCount(),
		Won:           e.HasWon(),
		PairsProgress: PairsProgressText(e.numPairFound, size.NumPairs()),
		MovesText:     MovesText(e.MoveCount()),
	}
	if pos, ok := e.PendingSelection(); ok {
		state.PendingSelection = &pos
	}

	return state
}

// GetFlipHistory returns a copy of the flip history
func (e *GameEngine) GetFlipHistory() []FlipRecord {
	history := make([]FlipRecord, len(e.history))
	copy(history, e.history)
	return history
}

// GetLastFlip returns the last flip made, or nil if no flips
func (e *GameEngine) GetLastFlip() *FlipRecord {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

func (e *GameEngine) checkPosition(position int) error {
	if position < 0 || position >= len(e.cards) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPositionOutOfRange, position, len(e.cards))
	}
	return nil
}

// buildDeck picks the pair identifiers, duplicates them and shuffles the result
func buildDeck(config *GameConfig, shuffler Shuffler) []Card {
	numPairs := config.BoardSize.NumPairs()

	var images []string
	if config.IsCustom() {
		images = make([]string, numPairs)
		copy(images, config.CustomImages)
	} else {
		pool := make([]string, len(DefaultIcons))
		copy(pool, DefaultIcons)
		shuffler.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		images = pool[:numPairs]
	}

	cards := make([]Card, 0, numPairs*2)
	for round := 0; round < 2; round++ {
		for _, image := range images {
			card := Card{ID: image}
			if config.IsCustom() {
				card.ImageURL = image
			}
			cards = append(cards, card)
		}
	}

	shuffler.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}

func viewOf(position int, card Card) CardView {
	view := CardView{
		Position:  position,
		IsFaceUp:  card.IsFaceUp,
		IsMatched: card.IsMatched,
	}
	if card.IsFaceUp || card.IsMatched {
		view.ID = card.ID
		view.ImageURL = card.ImageURL
	}
	return view
}

func cloneConfig(config *GameConfig) *GameConfig {
	clone := *config
	if config.CustomImages != nil {
		clone.CustomImages = make([]string, len(config.CustomImages))
		copy(clone.CustomImages, config.CustomImages)
	}
	return &clone
}

func newSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
