package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

var (
	ErrGameNotFound = errors.New("custom game not found")
	ErrInvalidGame  = errors.New("invalid custom game")
)

// Manager stores custom games as JSON files, one per game, keyed by the slug of the name
type Manager struct {
	gamesDir string
	games    map[string]*engine.CustomGame
	mu       sync.RWMutex
}

// NewManager creates a custom game store, creating the directory if needed
func NewManager(gamesDir string) (*Manager, error) {
	if err := os.MkdirAll(gamesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create games directory: %w", err)
	}

	return &Manager{
		gamesDir: gamesDir,
		games:    make(map[string]*engine.CustomGame),
	}, nil
}

// Key returns the storage key of a game name. Names that differ only in case
// or punctuation share a key.
func Key(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

// LoadGame loads a custom game by name (or by file name without extension)
func (m *Manager) LoadGame(name string) (*engine.CustomGame, error) {
	key := Key(strings.TrimSuffix(name, ".json"))
	if key == "" {
		return nil, ErrGameNotFound
	}

	m.mu.RLock()
	if game, exists := m.games[key]; exists {
		m.mu.RUnlock()
		return game, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if game, exists := m.games[key]; exists {
		return game, nil
	}

	game, err := engine.LoadCustomGameFile(m.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidGame, err)
	}

	m.games[key] = game
	return game, nil
}

// ListGames returns information about all valid stored games, sorted by name
func (m *Manager) ListGames() ([]*service.CustomGameInfo, error) {
	entries, err := os.ReadDir(m.gamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read games directory: %w", err)
	}

	games := []*service.CustomGameInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		game, err := m.LoadGame(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("skipping invalid custom game")
			continue
		}

		games = append(games, &service.CustomGameInfo{
			Filename:   entry.Name(),
			Name:       game.Name,
			BoardSize:  game.BoardSize,
			BoardLabel: game.BoardSize.Label(),
			NumImages:  len(game.Images),
		})
	}

	sort.Slice(games, func(i, j int) bool {
		return strings.ToLower(games[i].Name) < strings.ToLower(games[j].Name)
	})
	return games, nil
}

// SaveGame validates and writes a new custom game. Existing names are never overwritten.
func (m *Manager) SaveGame(game *engine.CustomGame) error {
	if err := engine.ValidateCustomGame(game); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGame, err)
	}

	key := Key(game.Name)
	if key == "" {
		return fmt.Errorf("%w: name %q has no usable characters", ErrInvalidGame, game.Name)
	}

	data, err := json.MarshalIndent(game, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal custom game: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// O_EXCL makes the existence check and the write one step
	file, err := os.OpenFile(m.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", service.ErrCustomGameExists, game.Name)
		}
		return fmt.Errorf("failed to create custom game file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(m.path(key))
		return fmt.Errorf("failed to write custom game file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write custom game file: %w", err)
	}

	m.games[key] = game
	return nil
}

// Exists reports whether a game with an equivalent name is stored
func (m *Manager) Exists(name string) bool {
	key := Key(name)
	if key == "" {
		return false
	}

	m.mu.RLock()
	_, cached := m.games[key]
	m.mu.RUnlock()
	if cached {
		return true
	}

	_, err := os.Stat(m.path(key))
	return err == nil
}

// RefreshCache drops cached games so edits on disk are picked up
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = make(map[string]*engine.CustomGame)
}

func (m *Manager) path(key string) string {
	return filepath.Join(m.gamesDir, key+".json")
}
