package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

func board(cards ...engine.CardView) *engine.GameState {
	for i := range cards {
		cards[i].Position = i
	}
	return &engine.GameState{Cards: cards}
}

func up(id string) engine.CardView { return engine.CardView{ID: id, IsFaceUp: true} }

func TestMemoryStrategy_FlipsUnseenFirst(t *testing.T) {
	s := NewMemoryStrategy()
	state := board(engine.CardView{}, engine.CardView{}, engine.CardView{}, engine.CardView{})

	assert.Equal(t, 0, s.NextFlip(state))
}

func TestMemoryStrategy_CompletesKnownPair(t *testing.T) {
	s := NewMemoryStrategy()

	// a mismatch shows cat and dog, then another cat turns up
	s.Observe(board(up("cat"), up("dog"), engine.CardView{}, engine.CardView{}))

	pending := 2
	state := board(engine.CardView{}, engine.CardView{}, up("cat"), engine.CardView{})
	state.PendingSelection = &pending
	assert.Equal(t, 0, s.NextFlip(state))
}

func TestMemoryStrategy_StartsWithKnownPair(t *testing.T) {
	s := NewMemoryStrategy()
	s.Observe(board(engine.CardView{}, up("owl"), engine.CardView{}, engine.CardView{}))
	s.Observe(board(engine.CardView{}, engine.CardView{}, engine.CardView{}, up("owl")))

	next := s.NextFlip(board(engine.CardView{}, engine.CardView{}, engine.CardView{}, engine.CardView{}))
	assert.Contains(t, []int{1, 3}, next)
}

func TestMemoryStrategy_SkipsFaceUpHalfOfPair(t *testing.T) {
	s := NewMemoryStrategy()
	s.Observe(board(engine.CardView{}, engine.CardView{}, up("fox"), engine.CardView{}))

	// fox at 0 and bee at 1 are left face-up after a mismatch
	next := s.NextFlip(board(up("fox"), up("bee"), engine.CardView{}, engine.CardView{}))
	assert.Equal(t, 2, next)
}

func TestMemoryStrategy_ForgetsMatchedCards(t *testing.T) {
	s := NewMemoryStrategy()
	s.Observe(board(up("cat"), up("cat"), engine.CardView{}, engine.CardView{}))
	assert.Len(t, s.seen, 2)

	matched := engine.CardView{ID: "cat", IsFaceUp: true, IsMatched: true}
	s.Observe(board(matched, matched, engine.CardView{}, engine.CardView{}))
	assert.Empty(t, s.seen)

	s.Observe(board(up("a"), engine.CardView{}, engine.CardView{}, engine.CardView{}))
	s.Reset()
	assert.Empty(t, s.seen)
}

func TestMemoryStrategy_NothingToFlip(t *testing.T) {
	s := NewMemoryStrategy()
	assert.Equal(t, -1, s.NextFlip(nil))
	assert.Equal(t, -1, s.NextFlip(&engine.GameState{Won: true}))
}
