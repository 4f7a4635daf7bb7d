package engine

// Flip turns the card at position face-up and reports whether it completed a match.
//
// The engine does not guard against flipping a card that is already face-up or
// matched, nor against flipping after the game is won. Callers check IsFaceUp and
// HasWon first.
func (e *GameEngine) Flip(position int) (bool, error) {
	if err := e.checkPosition(position); err != nil {
		return false, err
	}

	e.numCardFlips++

	matched := false
	if e.pending == noSelection {
		// A mismatched pair stays visible until the next first selection
		e.restoreCards()
		e.pending = position
	} else {
		matched = e.checkForMatch(e.pending, position)
		e.pending = noSelection
	}

	e.cards[position].IsFaceUp = true
	e.recordFlip(position, matched)

	return matched, nil
}

// restoreCards turns every unmatched face-up card back down
func (e *GameEngine) restoreCards() {
	for i := range e.cards {
		if !e.cards[i].IsMatched {
			e.cards[i].IsFaceUp = false
		}
	}
}

// checkForMatch marks both cards matched when their ids are equal
func (e *GameEngine) checkForMatch(first, second int) bool {
	if e.cards[first].ID != e.cards[second].ID {
		return false
	}

	e.cards[first].IsMatched = true
	e.cards[second].IsMatched = true
	e.numPairFound++
	return true
}

func (e *GameEngine) recordFlip(position int, matched bool) {
	e.history = append(e.history, FlipRecord{
		FlipNumber: e.numCardFlips,
		Position:   position,
		CardID:     e.cards[position].ID,
		Matched:    matched,
		Timestamp:  e.now().UnixMilli(),
	})
}
