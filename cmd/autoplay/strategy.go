package main

import (
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// MemoryStrategy remembers every card it has seen face-up and
// flips a known pair whenever one is available.
type MemoryStrategy struct {
	seen map[int]string
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{seen: make(map[int]string)}
}

// Reset forgets every card, used after the board is reshuffled
func (s *MemoryStrategy) Reset() {
	s.seen = make(map[int]string)
}

// Observe records the ids of all visible unmatched cards and drops matched ones
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	for _, card := range state.Cards {
		switch {
		case card.IsMatched:
			delete(s.seen, card.Position)
		case card.IsFaceUp && card.ID != "":
			s.seen[card.Position] = card.ID
		}
	}
}

// NextFlip picks the next position to flip, or -1 when nothing is flippable
func (s *MemoryStrategy) NextFlip(state *engine.GameState) int {
	if state == nil || state.Won {
		return -1
	}
	s.Observe(state)

	if state.PendingSelection != nil {
		return s.second(state, *state.PendingSelection)
	}
	return s.first(state)
}

func (s *MemoryStrategy) first(state *engine.GameState) int {
	// A face-down half of a known pair. The other half is either face-down
	// too or left over from a mismatch and turns back down on this flip.
	for pos, id := range s.seen {
		if state.Cards[pos].IsFaceUp {
			continue
		}
		if s.partner(pos, id) >= 0 {
			return pos
		}
	}
	if pos := s.unseen(state, -1); pos >= 0 {
		return pos
	}
	return faceDown(state, -1)
}

func (s *MemoryStrategy) second(state *engine.GameState, pending int) int {
	if id, ok := s.seen[pending]; ok {
		if pos := s.partner(pending, id); pos >= 0 {
			return pos
		}
	}
	if pos := s.unseen(state, pending); pos >= 0 {
		return pos
	}
	return faceDown(state, pending)
}

func (s *MemoryStrategy) partner(pos int, id string) int {
	for other, otherID := range s.seen {
		if other != pos && otherID == id {
			return other
		}
	}
	return -1
}

func (s *MemoryStrategy) unseen(state *engine.GameState, skip int) int {
	for _, card := range state.Cards {
		if card.Position == skip || card.IsMatched || card.IsFaceUp {
			continue
		}
		if _, ok := s.seen[card.Position]; !ok {
			return card.Position
		}
	}
	return -1
}

func faceDown(state *engine.GameState, skip int) int {
	for _, card := range state.Cards {
		if card.Position != skip && !card.IsFaceUp && !card.IsMatched {
			return card.Position
		}
	}
	return -1
}
