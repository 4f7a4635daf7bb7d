// Package scores keeps the leaderboard in SQLite.
//
// The schema is managed by goose migrations embedded in the binary, applied
// when the store opens.
package scores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals
var gooseMu sync.Mutex

var ErrInvalidEntry = errors.New("invalid score entry")

// SQLiteStore implements service.ScoreStore
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if missing) the SQLite database at dsn and migrates it
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug().Str("dsn", dsn).Msg("score database ready")
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddScore inserts one leaderboard entry
func (s *SQLiteStore) AddScore(ctx context.Context, entry *service.ScoreEntry) error {
	if entry == nil || entry.ID == "" || entry.PlayerName == "" {
		return fmt.Errorf("%w: id and player name are required", ErrInvalidEntry)
	}
	if !entry.Difficulty.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, engine.ErrInvalidBoardSize)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO scores
            (id, session_id, player_name, difficulty, game_name, moves, duration_seconds, score, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.PlayerName, entry.Difficulty.String(), entry.GameName,
		entry.Moves, entry.DurationSeconds, entry.Score, createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// TopScores returns the best entries, highest score first and oldest first on ties.
// A nil difficulty covers every board size.
func (s *SQLiteStore) TopScores(ctx context.Context, difficulty *engine.BoardSize, limit int) ([]*service.ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
        SELECT id, session_id, player_name, difficulty, game_name, moves, duration_seconds, score, created_at
        FROM scores`
	args := []any{}
	if difficulty != nil {
		query += ` WHERE difficulty = ?`
		args = append(args, difficulty.String())
	}
	query += ` ORDER BY score DESC, created_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := make([]*service.ScoreEntry, 0, limit)
	for rows.Next() {
		var (
			entry      service.ScoreEntry
			difficulty string
			createdAt  int64
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.PlayerName, &difficulty, &entry.GameName,
			&entry.Moves, &entry.DurationSeconds, &entry.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		size, err := engine.ParseBoardSize(difficulty)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", entry.ID, err)
		}
		entry.Difficulty = size
		entry.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// openDB opens a SQLite file with a busy timeout and WAL journaling
func openDB(dsn string) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply score migrations: %w", err)
	}
	return nil
}
