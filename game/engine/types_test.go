package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardSizeDimensions(t *testing.T) {
	tests := []struct {
		size     BoardSize
		name     string
		numCards int
		numPairs int
		width    int
		height   int
		label    string
	}{
		{Easy, "easy", 8, 4, 2, 4, "Easy: 4 x 2"},
		{Medium, "medium", 18, 9, 3, 6, "Medium: 6 x 3"},
		{Hard, "hard", 24, 12, 4, 6, "Hard: 6 x 4"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.name, test.size.String())
			assert.Equal(t, test.numCards, test.size.NumCards())
			assert.Equal(t, test.numPairs, test.size.NumPairs())
			assert.Equal(t, test.width, test.size.Width())
			assert.Equal(t, test.height, test.size.Height())
			assert.Equal(t, test.label, test.size.Label())
			assert.Equal(t, 2*test.size.NumPairs(), test.size.NumCards())
			assert.Equal(t, test.size.NumCards(), test.size.Width()*test.size.Height())
		})
	}
}

func TestBoardSizeInvalid(t *testing.T) {
	size := BoardSize(7)
	assert.False(t, size.Valid())
	assert.Equal(t, 0, size.NumCards())
	assert.Equal(t, 0, size.Height())
	assert.Equal(t, "BoardSize(7)", size.Label())

	_, err := json.Marshal(size)
	assert.ErrorIs(t, err, ErrInvalidBoardSize)
}

func TestBoardSizeJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Size BoardSize `json:"size"`
	}{Size: Medium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":"medium"}`, string(data))

	var decoded struct {
		Size BoardSize `json:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"size":"HARD"}`), &decoded))
	assert.Equal(t, Hard, decoded.Size)

	err = json.Unmarshal([]byte(`{"size":"giant"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidBoardSize)

	err = json.Unmarshal([]byte(`{"size":3}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidBoardSize)
}

func TestDefaultIconPool(t *testing.T) {
	assert.GreaterOrEqual(t, len(DefaultIcons), Hard.NumPairs())

	seen := make(map[string]bool)
	for _, icon := range DefaultIcons {
		assert.False(t, seen[icon], "duplicate icon %s", icon)
		seen[icon] = true
	}
}

func TestValidationConstants(t *testing.T) {
	assert.Equal(t, 3, MinGameNameLength)
	assert.Equal(t, 14, MaxGameNameLength)
	assert.Equal(t, 100, MaxHistoryLimit)
	assert.Equal(t, 256, WebSocketBufferSize)
}

func TestGameStateJSON(t *testing.T) {
	engine, err := NewEngineWithShuffler(&GameConfig{BoardSize: Easy}, NoShuffle{})
	require.NoError(t, err)

	_, err = engine.Flip(0)
	require.NoError(t, err)

	data, err := json.Marshal(engine.GetState())
	require.NoError(t, err)

	var decoded GameState
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, Easy, decoded.BoardSize)
	assert.Equal(t, "Easy: 4 x 2", decoded.BoardLabel)
	require.NotNil(t, decoded.PendingSelection)
	assert.Equal(t, 0, *decoded.PendingSelection)
	assert.Len(t, decoded.Cards, 8)
	assert.Equal(t, "Pairs: 0 / 4", decoded.PairsProgress)
	assert.Equal(t, "Moves: 0", decoded.MovesText)
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Pairs: 3 / 9", PairsProgressText(3, 9))
	assert.Equal(t, "Moves: 12", MovesText(12))

	cards := []CardView{
		{Position: 0, IsFaceUp: true, IsMatched: true},
		{Position: 1, IsFaceUp: true},
		{Position: 2},
		{Position: 3, IsFaceUp: true, IsMatched: true},
	}
	assert.Equal(t, 2, CountMatched(cards))
	assert.Equal(t, []int{1}, FaceUpUnmatched(cards))
}
