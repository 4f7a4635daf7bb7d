package session

import (
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// The board is not stored: the config seed rebuilds the deck and the flips are replayed on it.
type PersistedSessionData struct {
	ID             string              `json:"id"`
	Config         *engine.GameConfig  `json:"config"`
	Flips          []engine.FlipRecord `json:"flips"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	StartedAt      time.Time           `json:"started_at"`
	ScoreSubmitted bool                `json:"score_submitted"`
}

// NewPersistedSessionData captures everything needed to rebuild a session.
// The caller holds the session's lock.
func NewPersistedSessionData(session *service.Session) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             session.ID,
		Config:         session.Engine.GetConfig(),
		Flips:          session.Engine.GetFlipHistory(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		StartedAt:      session.StartedAt,
		ScoreSubmitted: session.ScoreSubmitted,
	}
}

// Restore replays the recorded flips and returns the live session
func (d *PersistedSessionData) Restore() (*service.Session, error) {
	eng, err := engine.Replay(d.Config, d.Flips)
	if err != nil {
		return nil, err
	}

	return &service.Session{
		ID:             d.ID,
		Engine:         eng,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
		StartedAt:      d.StartedAt,
		ScoreSubmitted: d.ScoreSubmitted,
	}, nil
}
