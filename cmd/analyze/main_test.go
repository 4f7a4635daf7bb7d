package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
)

func saveSession(t *testing.T, fp *session.FilePersistence, id string, config *engine.GameConfig, play func(*engine.GameEngine)) {
	t.Helper()
	eng, err := engine.NewEngine(config)
	require.NoError(t, err)
	if play != nil {
		play(eng)
	}

	now := time.Now().UTC()
	require.NoError(t, fp.Save(&service.Session{
		ID:             id,
		Engine:         eng,
		CreatedAt:      now,
		LastAccessedAt: now,
		StartedAt:      now,
	}))
}

// winAll flips every pair in deck order
func winAll(t *testing.T) func(*engine.GameEngine) {
	return func(eng *engine.GameEngine) {
		first := map[string]int{}
		for pos, card := range eng.Cards() {
			if prev, ok := first[card.ID]; ok {
				_, err := eng.Flip(prev)
				require.NoError(t, err)
				_, err = eng.Flip(pos)
				require.NoError(t, err)
				continue
			}
			first[card.ID] = pos
		}
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	fp, err := session.NewFilePersistence(dir)
	require.NoError(t, err)

	saveSession(t, fp, "aaaa1111", &engine.GameConfig{BoardSize: engine.Easy, Seed: 7}, winAll(t))
	saveSession(t, fp, "bbbb2222", &engine.GameConfig{
		Name:         "Birds",
		BoardSize:    engine.Easy,
		CustomImages: []string{"https://a.test/1", "https://a.test/2", "https://a.test/3", "https://a.test/4"},
		Seed:         3,
	}, func(eng *engine.GameEngine) {
		_, err := eng.Flip(0)
		require.NoError(t, err)
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	var out bytes.Buffer
	require.NoError(t, analyzeDir(&out, dir))
	report := out.String()

	assert.Contains(t, report, "=== Session aaaa1111 ===")
	assert.Contains(t, report, "Pairs: 4 / 4 | Moves: 4")
	assert.Contains(t, report, "✅ Won")
	assert.Contains(t, report, "=== Session bbbb2222 ===")
	assert.Contains(t, report, "Custom game: Birds")
	assert.Contains(t, report, "Pairs: 0 / 4 | Moves: 0")
	assert.Contains(t, report, "⏳ In progress")
	assert.Contains(t, report, "Board: Easy: 4 x 2")
	assert.Contains(t, report, "❌ broken.json")
	assert.Contains(t, report, "2 sessions, 1 won, 1 unreadable")
}

func TestAnalyzeDirEmpty(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, analyzeDir(&out, dir))
	assert.Equal(t, "No sessions found in "+dir+"\n", out.String())
}

func TestSummarizeMissingFile(t *testing.T) {
	_, err := summarize(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
