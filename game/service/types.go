package service

import (
	"io"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// NewGameOptions selects the board for a new session.
// GameName takes precedence; the board size then follows from its image count.
type NewGameOptions struct {
	BoardSize string `json:"board_size,omitempty"`
	GameName  string `json:"game_name,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	GameName       string            `json:"game_name,omitempty"`
	BoardSize      engine.BoardSize  `json:"board_size"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	StartedAt      time.Time         `json:"started_at"`
	ScoreSubmitted bool              `json:"score_submitted"`
	GameState      *engine.GameState `json:"game_state"`
}

// FlipResult contains the result of a flip operation
type FlipResult struct {
	Position  int               `json:"position"`
	Matched   bool              `json:"matched"`
	Won       bool              `json:"won"`
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "flip", "match", "mismatch", "victory", "reset", "new_board"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Position  *int      `json:"position,omitempty"`
}

// HistoryOptions configures flip history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated flip history
type HistoryResponse struct {
	Flips       []engine.FlipRecord `json:"flips"`
	TotalFlips  int                 `json:"total_flips"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// CustomGameInfo provides information about a stored custom game
type CustomGameInfo struct {
	Filename   string           `json:"filename"`
	Name       string           `json:"name"`
	BoardSize  engine.BoardSize `json:"board_size"`
	BoardLabel string           `json:"board_label"`
	NumImages  int              `json:"num_images"`
}

// ImageUpload is one image file attached to a custom game request
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateCustomGameRequest creates a custom game from image URLs or uploaded files
type CreateCustomGameRequest struct {
	Name      string        `json:"name"`
	ImageURLs []string      `json:"image_urls,omitempty"`
	Uploads   []ImageUpload `json:"-"`
}

// ScoreEntry is one leaderboard row
type ScoreEntry struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	PlayerName      string           `json:"player_name"`
	Difficulty      engine.BoardSize `json:"difficulty"`
	GameName        string           `json:"game_name,omitempty"`
	Moves           int              `json:"moves"`
	DurationSeconds int              `json:"duration_seconds"`
	Score           int              `json:"score"`
	CreatedAt       time.Time        `json:"created_at"`
}

// LeaderboardQuery filters the leaderboard.
// Difficulty is a board size name, or "" / "all" for every size.
type LeaderboardQuery struct {
	Difficulty string `json:"difficulty"`
	Limit      int    `json:"limit"`
}
