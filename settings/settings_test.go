package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray .env or yaml is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, ":8080", s.Server.Addr())
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "games", s.Storage.GamesDir)
	assert.Equal(t, "sessions", s.Storage.SessionsDir)
	assert.Equal(t, "data/scores.db", s.Storage.ScoresDSN)
	assert.Equal(t, "local", s.Assets.Backend)
	assert.Equal(t, 24*time.Hour, s.Sessions.MaxIdle)
	assert.Equal(t, time.Hour, s.Sessions.SweepInterval)
	assert.False(t, s.Ngrok.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
server:
  host: 127.0.0.1
  port: 9000
log:
  level: debug
sessions:
  max_idle: 2h
assets:
  backend: s3
  s3:
    bucket: cards
    endpoint: https://acct.r2.cloudflarestorage.com
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	t.Setenv("MEMORYMATCH_SERVER_PORT", "9100")
	t.Setenv("MEMORYMATCH_STORAGE_GAMES_DIR", "/srv/games")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", s.Server.Addr())
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, 2*time.Hour, s.Sessions.MaxIdle)
	assert.Equal(t, "/srv/games", s.Storage.GamesDir)
	assert.Equal(t, "s3", s.Assets.Backend)
	assert.Equal(t, "cards", s.Assets.S3.Bucket)
}

func TestLoad_DefaultFileAndDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memorymatch.yaml"), []byte("log:\n  level: warn\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEMORYMATCH_STORAGE_SESSIONS_DIR=/tmp/from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MEMORYMATCH_STORAGE_SESSIONS_DIR") })

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "/tmp/from-dotenv", s.Storage.SessionsDir)
}

func TestLoad_Errors(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	t.Run("invalid level", func(t *testing.T) {
		t.Setenv("MEMORYMATCH_LOG_LEVEL", "loud")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid settings")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("MEMORYMATCH_ASSETS_BACKEND", "s3")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid s3 settings")
	})

	t.Run("ngrok without token", func(t *testing.T) {
		t.Setenv("MEMORYMATCH_NGROK_ENABLED", "true")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("MEMORYMATCH_SERVER_PORT", "70000")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestConfigureLogging(t *testing.T) {
	defer func(logger zerolog.Logger, level zerolog.Level) {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
	}(log.Logger, zerolog.GlobalLevel())

	var buf bytes.Buffer
	ConfigureLoggingTo(LogSettings{Level: "warn"}, &buf)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("session", "ab12").Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"session":"ab12"`)

	buf.Reset()
	ConfigureLoggingTo(LogSettings{Level: "nonsense", Pretty: true}, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Info().Msg("pretty line")
	assert.True(t, strings.Contains(buf.String(), "pretty line"))
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}
