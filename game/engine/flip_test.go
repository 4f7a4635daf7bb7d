package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flip(t *testing.T, engine *GameEngine, position int) bool {
	t.Helper()
	matched, err := engine.Flip(position)
	require.NoError(t, err, "flip(%d)", position)
	return matched
}

func faceUp(t *testing.T, engine *GameEngine, position int) bool {
	t.Helper()
	up, err := engine.IsFaceUp(position)
	require.NoError(t, err)
	return up
}

func TestFlipMatch(t *testing.T) {
	engine := createOrderedEngine(t)

	assert.False(t, flip(t, engine, 0))
	assert.True(t, faceUp(t, engine, 0))
	pending, ok := engine.PendingSelection()
	require.True(t, ok)
	assert.Equal(t, 0, pending)

	assert.True(t, flip(t, engine, 4))
	_, ok = engine.PendingSelection()
	assert.False(t, ok)

	for _, pos := range []int{0, 4} {
		matched, err := engine.IsMatched(pos)
		require.NoError(t, err)
		assert.True(t, matched)
		assert.True(t, faceUp(t, engine, pos))
	}
	assert.Equal(t, 1, engine.PairsFound())
	assert.Equal(t, 1, engine.MoveCount())
}

func TestFlipMismatchDelayedHide(t *testing.T) {
	engine := createOrderedEngine(t)

	assert.False(t, flip(t, engine, 1))
	assert.False(t, flip(t, engine, 2))

	// both stay visible until the next flip
	assert.True(t, faceUp(t, engine, 1))
	assert.True(t, faceUp(t, engine, 2))
	assert.Equal(t, 0, engine.PairsFound())

	assert.False(t, flip(t, engine, 3))
	assert.False(t, faceUp(t, engine, 1))
	assert.False(t, faceUp(t, engine, 2))
	assert.True(t, faceUp(t, engine, 3))
}

func TestFlipRestoreKeepsMatchedCards(t *testing.T) {
	engine := createOrderedEngine(t)

	flip(t, engine, 0)
	flip(t, engine, 4)
	flip(t, engine, 1)
	flip(t, engine, 2)
	flip(t, engine, 3)

	assert.True(t, faceUp(t, engine, 0))
	assert.True(t, faceUp(t, engine, 4))
	assert.False(t, faceUp(t, engine, 1))
	assert.False(t, faceUp(t, engine, 2))
}

func TestFlipOutOfRange(t *testing.T) {
	engine := createOrderedEngine(t)
	flip(t, engine, 2)
	before := engine.GetState()

	for _, pos := range []int{-1, 8, 100} {
		matched, err := engine.Flip(pos)
		assert.ErrorIs(t, err, ErrPositionOutOfRange)
		assert.False(t, matched)
	}

	assert.Equal(t, before, engine.GetState())
	assert.Len(t, engine.GetFlipHistory(), 1)
}

func TestMoveCounting(t *testing.T) {
	engine, err := NewEngine(&GameConfig{BoardSize: Hard, Seed: 5})
	require.NoError(t, err)

	for k := 1; k <= 30; k++ {
		_, err := engine.Flip(k % engine.BoardSize().NumCards())
		require.NoError(t, err)
		assert.Equal(t, k, engine.FlipCount())
		assert.Equal(t, k/2, engine.MoveCount())
	}
}

func TestRepeatedMismatchNeverScores(t *testing.T) {
	engine := createOrderedEngine(t)

	for i := 0; i < 5; i++ {
		assert.False(t, flip(t, engine, 0))
		assert.False(t, flip(t, engine, 1))
		assert.False(t, flip(t, engine, 2))
		assert.False(t, flip(t, engine, 3))
	}
	assert.Equal(t, 0, engine.PairsFound())
	assert.False(t, engine.HasWon())
}

// The engine leaves face-up checks to the caller, so these flips are accepted
// and follow the ordinary first/second selection rules.
func TestFlipFaceUpCardIsNotRefused(t *testing.T) {
	t.Run("pending card matches itself", func(t *testing.T) {
		engine := createOrderedEngine(t)

		assert.False(t, flip(t, engine, 0))
		assert.True(t, flip(t, engine, 0))

		matched, err := engine.IsMatched(0)
		require.NoError(t, err)
		assert.True(t, matched)
		assert.Equal(t, 1, engine.PairsFound())
		assert.Equal(t, 2, engine.FlipCount())
		_, ok := engine.PendingSelection()
		assert.False(t, ok)

		// its real partner is untouched
		matched, err = engine.IsMatched(4)
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("mismatched card restarts the selection", func(t *testing.T) {
		engine := createOrderedEngine(t)

		flip(t, engine, 1)
		flip(t, engine, 2)
		require.True(t, faceUp(t, engine, 1))
		require.True(t, faceUp(t, engine, 2))

		assert.False(t, flip(t, engine, 2))
		assert.False(t, faceUp(t, engine, 1))
		assert.True(t, faceUp(t, engine, 2))
		pending, ok := engine.PendingSelection()
		require.True(t, ok)
		assert.Equal(t, 2, pending)

		// the restarted selection completes normally
		assert.True(t, flip(t, engine, 6))
		assert.Equal(t, 1, engine.PairsFound())
		assert.Equal(t, 4, engine.FlipCount())
	})
}

func TestWinInvariant(t *testing.T) {
	engine := createOrderedEngine(t)

	for pair := 0; pair < 4; pair++ {
		assert.False(t, engine.HasWon())
		flip(t, engine, pair)
		assert.True(t, flip(t, engine, pair+4))
		assert.Equal(t, pair+1, engine.PairsFound())
	}

	assert.True(t, engine.HasWon())
	assert.Equal(t, engine.NumPairs(), engine.PairsFound())
	assert.True(t, engine.GetState().Won)
	assert.Equal(t, "Pairs: 4 / 4", engine.GetState().PairsProgress)

	// a won game never loses pairs, whatever the caller does next
	flip(t, engine, 1)
	flip(t, engine, 2)
	assert.GreaterOrEqual(t, engine.PairsFound(), engine.NumPairs())
}

func TestWinWithShuffledDeck(t *testing.T) {
	engine, err := NewEngine(&GameConfig{BoardSize: Medium, Seed: 2024})
	require.NoError(t, err)

	positions := make(map[string][]int)
	for i, card := range engine.Cards() {
		positions[card.ID] = append(positions[card.ID], i)
	}

	for _, pair := range positions {
		require.Len(t, pair, 2)
		assert.False(t, flip(t, engine, pair[0]))
		assert.True(t, flip(t, engine, pair[1]))
	}

	assert.True(t, engine.HasWon())
	assert.Equal(t, Medium.NumPairs(), engine.MoveCount())
}

func TestEndToEndExample(t *testing.T) {
	engine := createOrderedEngine(t)

	assert.False(t, flip(t, engine, 0))
	assert.True(t, faceUp(t, engine, 0))

	assert.True(t, flip(t, engine, 4))
	assert.Equal(t, 1, engine.PairsFound())
	assert.Equal(t, 1, engine.MoveCount())

	assert.False(t, flip(t, engine, 1))
	assert.True(t, faceUp(t, engine, 1))

	assert.False(t, flip(t, engine, 2))

	assert.False(t, flip(t, engine, 0))
	assert.False(t, faceUp(t, engine, 1))
	assert.False(t, faceUp(t, engine, 2))
	assert.True(t, faceUp(t, engine, 0))
	pending, ok := engine.PendingSelection()
	require.True(t, ok)
	assert.Equal(t, 0, pending)
	assert.Equal(t, 2, engine.MoveCount())
}

func TestFlipHistoryRecordsEachFlip(t *testing.T) {
	engine := createOrderedEngine(t)
	flip(t, engine, 0)
	flip(t, engine, 5)
	flip(t, engine, 1)

	history := engine.GetFlipHistory()
	require.Len(t, history, 3)
	assert.Equal(t, FlipRecord{FlipNumber: 1, Position: 0, CardID: "a", Timestamp: history[0].Timestamp}, history[0])
	assert.Equal(t, 5, history[1].Position)
	assert.Equal(t, "b", history[1].CardID)
	assert.False(t, history[1].Matched)
	assert.Equal(t, 3, history[2].FlipNumber)

	history[0].Position = 7
	assert.Equal(t, 0, engine.GetFlipHistory()[0].Position)
}
