package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/settings"
	"github.com/wricardo/mcp-training/memorymatch/transport/mcp"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()
	dir := t.TempDir()
	return &settings.Settings{
		Server: settings.ServerSettings{Port: 8080},
		Log:    settings.LogSettings{Level: "info"},
		Storage: settings.StorageSettings{
			GamesDir:    filepath.Join(dir, "games"),
			SessionsDir: filepath.Join(dir, "sessions"),
			ScoresDSN:   filepath.Join(dir, "data", "scores.db"),
		},
		Assets: settings.AssetSettings{
			Backend:  "local",
			LocalDir: filepath.Join(dir, "assets"),
		},
		Sessions: settings.SessionSettings{
			MaxIdle:       time.Hour,
			SweepInterval: time.Minute,
			SyncInterval:  time.Second,
		},
	}
}

func TestCommands(t *testing.T) {
	cmd := newCommand()
	assert.Equal(t, Version, cmd.Version)

	names := map[string]bool{}
	for _, sub := range cmd.Commands {
		names[sub.Name] = true
	}
	assert.True(t, names["server"])
	assert.True(t, names["stdio-mcp"])
	assert.True(t, names["version"])
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	require.NoError(t, cmd.Run(context.Background(), []string{"memorymatch", "version"}))
	assert.Equal(t, AppName+" v"+Version+"\n", out.String())
}

func TestApplyFlags(t *testing.T) {
	s := testSettings(t)

	cmd := newCommand()
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		applyFlags(c, s)
		return nil
	}

	args := []string{"memorymatch", "--port", "9090", "--host", "0.0.0.0", "--debug", "--games-dir", "/tmp/g", "--ngrok", "--ngrok-auth", "tok"}
	require.NoError(t, cmd.Run(context.Background(), args))

	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", s.Server.Addr())
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Log.Pretty)
	assert.Equal(t, "/tmp/g", s.Storage.GamesDir)
	assert.True(t, s.Ngrok.Enabled)
	assert.Equal(t, "tok", s.Ngrok.Authtoken)
	assert.NoError(t, s.Validate())
}

func TestApplyFlagsKeepsSettingsWhenUnset(t *testing.T) {
	t.Setenv("NGROK_AUTHTOKEN", "")
	t.Setenv("NGROK_AUTH_TOKEN", "")
	t.Setenv("NGROK_DOMAIN", "")
	s := testSettings(t)
	want := *s

	cmd := newCommand()
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		applyFlags(c, s)
		return nil
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"memorymatch"}))
	assert.Equal(t, want, *s)
}

func TestInitializeServices(t *testing.T) {
	s := testSettings(t)
	ctx := context.Background()

	a, err := initializeServices(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s.Assets.LocalDir, a.imagesDir)
	require.NotNil(t, a.scores)

	info, err := a.service.CreateSession(ctx, service.NewGameOptions{BoardSize: "medium"})
	require.NoError(t, err)
	_, err = a.service.Flip(ctx, info.ID, 0)
	require.NoError(t, err)

	board, err := a.service.Leaderboard(ctx, service.LeaderboardQuery{})
	require.NoError(t, err)
	assert.Empty(t, board)
	a.Close()

	// a restart restores the session from the sessions directory
	restarted, err := initializeServices(ctx, s)
	require.NoError(t, err)
	defer restarted.Close()

	state, err := restarted.service.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.FlipCount)
	assert.Equal(t, "Medium: 6 x 3", state.BoardLabel)
	assert.True(t, state.Cards[0].IsFaceUp)
}

func TestInitializeServicesWithoutLeaderboard(t *testing.T) {
	s := testSettings(t)
	s.Storage.ScoresDSN = ""
	s.Assets.Backend = "none"

	a, err := initializeServices(context.Background(), s)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.scores)
	assert.Empty(t, a.imagesDir)

	_, err = a.service.Leaderboard(context.Background(), service.LeaderboardQuery{})
	assert.ErrorIs(t, err, service.ErrLeaderboardUnavailable)
}

func TestInitializeServicesInvalidGamesDir(t *testing.T) {
	s := testSettings(t)
	s.Storage.GamesDir = "/dev/null/games"

	_, err := initializeServices(context.Background(), s)
	assert.Error(t, err)
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:8080"))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/list","params":{}}`)
	handler(w, httptest.NewRequest(http.MethodPost, "/mcp", body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"flip"`)
	assert.Contains(t, w.Body.String(), `"id":7`)
}

func TestAPIAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer healthy.Close()
	assert.True(t, apiAvailable(healthy.URL))

	other := httptest.NewServer(http.NotFoundHandler())
	defer other.Close()
	assert.False(t, apiAvailable(other.URL))

	assert.False(t, apiAvailable("http://127.0.0.1:1"))
}
