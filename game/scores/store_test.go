package scores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "data", "scores.db")
	store, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dsn
}

func entry(id string, size engine.BoardSize, score int, at time.Time) *service.ScoreEntry {
	return &service.ScoreEntry{
		ID:              id,
		SessionID:       "ab12",
		PlayerName:      "player-" + id,
		Difficulty:      size,
		Moves:           size.NumPairs() + 2,
		DurationSeconds: 30,
		Score:           score,
		CreatedAt:       at,
	}
}

func TestSQLiteStore_AddAndTopScores(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AddScore(ctx, entry("1", engine.Easy, 300, base)))
	require.NoError(t, store.AddScore(ctx, entry("2", engine.Hard, 1100, base.Add(time.Second))))
	require.NoError(t, store.AddScore(ctx, entry("3", engine.Easy, 350, base.Add(2*time.Second))))
	// ties are broken by the earlier entry
	require.NoError(t, store.AddScore(ctx, entry("4", engine.Easy, 300, base.Add(-time.Minute))))

	all, err := store.TopScores(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	ids := []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID}
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids)
	assert.Equal(t, engine.Hard, all[0].Difficulty)
	assert.True(t, base.Add(time.Second).Equal(all[0].CreatedAt))
	assert.Equal(t, "player-2", all[0].PlayerName)
	assert.Equal(t, 14, all[0].Moves)

	easy := engine.Easy
	top, err := store.TopScores(ctx, &easy, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "3", top[0].ID)
	assert.Equal(t, "4", top[1].ID)

	medium := engine.Medium
	none, err := store.TopScores(ctx, &medium, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Validation(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	assert.ErrorIs(t, store.AddScore(ctx, nil), ErrInvalidEntry)
	assert.ErrorIs(t, store.AddScore(ctx, &service.ScoreEntry{ID: "x"}), ErrInvalidEntry)
	assert.ErrorIs(t, store.AddScore(ctx, entry("y", engine.BoardSize(5), 1, time.Now())), ErrInvalidEntry)

	require.NoError(t, store.AddScore(ctx, entry("dup", engine.Easy, 1, time.Now())))
	assert.Error(t, store.AddScore(ctx, entry("dup", engine.Easy, 1, time.Now())))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	store, dsn := openTestStore(t)
	require.NoError(t, store.AddScore(ctx, entry("keep", engine.Medium, 800, time.Now())))
	require.NoError(t, store.Close())

	// migrations are idempotent
	reopened, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer reopened.Close()

	top, err := reopened.TopScores(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "keep", top[0].ID)
	assert.Equal(t, engine.Medium, top[0].Difficulty)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.AddScore(ctx, entry("m", engine.Easy, 10, time.Now())))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
