package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

var (
	ErrGameAlreadyWon          = errors.New("you already won")
	ErrCardAlreadyFaceUp       = errors.New("invalid move: card is already face-up")
	ErrInvalidPosition         = errors.New("invalid position")
	ErrGameNotWon              = errors.New("game is not won yet")
	ErrScoreAlreadySubmitted   = errors.New("score already submitted for this game")
	ErrInvalidPlayerName       = errors.New("invalid player name")
	ErrCustomGameNotFound      = errors.New("custom game not found")
	ErrCustomGameExists        = errors.New("custom game name already taken")
	ErrLeaderboardUnavailable  = errors.New("leaderboard is not configured")
	ErrImageStorageUnavailable = errors.New("image storage is not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts NewGameOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Flip(ctx context.Context, sessionID string, position int) (*FlipResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	ChangeBoardSize(ctx context.Context, sessionID string, size engine.BoardSize) (*engine.GameState, error)
	PlayCustomGame(ctx context.Context, sessionID, gameName string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Custom games
	ListCustomGames(ctx context.Context) ([]*CustomGameInfo, error)
	GetCustomGame(ctx context.Context, name string) (*engine.CustomGame, error)
	CreateCustomGame(ctx context.Context, req CreateCustomGameRequest) (*engine.CustomGame, error)

	// Leaderboard
	SubmitScore(ctx context.Context, sessionID, playerName string) (*ScoreEntry, error)
	Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*ScoreEntry, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// CustomGameStore stores named custom games
type CustomGameStore interface {
	LoadGame(name string) (*engine.CustomGame, error)
	ListGames() ([]*CustomGameInfo, error)
	SaveGame(game *engine.CustomGame) error
	Exists(name string) bool
}

// ScoreStore persists leaderboard entries
type ScoreStore interface {
	AddScore(ctx context.Context, entry *ScoreEntry) error
	TopScores(ctx context.Context, difficulty *engine.BoardSize, limit int) ([]*ScoreEntry, error)
}

// ImageStore stores uploaded custom game images and returns their public URL
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Session represents an active game session.
// Engine and every field except ID are guarded by Lock. Holders of the lock
// must not call back into the SessionManager.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time
	StartedAt      time.Time
	ScoreSubmitted bool

	mu sync.Mutex
}

// Lock acquires the session's mutex
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's mutex
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.LastAccessedAt = t
	s.mu.Unlock()
}

// IdleSince reports whether the session was last accessed before cutoff
func (s *Session) IdleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt.Before(cutoff)
}
