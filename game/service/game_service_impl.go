package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	maxPlayerNameLength     = 32
	victoryMessage          = "You won! Congratulations"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	games    CustomGameStore
	scores   ScoreStore
	images   ImageStore
	// mu orders operations across sessions; per-session state is guarded by Session.Lock
	mu sync.RWMutex

	now     func() time.Time
	newSeed func() uint64
}

// NewGameService creates a new game service instance.
// scores and images may be nil, which disables the leaderboard and image uploads.
func NewGameService(sessions SessionManager, games CustomGameStore, scores ScoreStore, images ImageStore) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		games:    games,
		scores:   scores,
		images:   images,
		now:      time.Now,
		newSeed:  engine.NewSeed,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts NewGameOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.buildConfig(opts)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.touch(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Flip turns one card of a session face-up, enforcing the player-facing guards
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID string, position int) (*FlipResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.touch(sessionID)

	sess.Lock()
	result, err := s.flip(sess, position)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.persist(sessionID, "flip")
	return result, nil
}

// flip applies one flip to a locked session
func (s *gameServiceImpl) flip(sess *Session, position int) (*FlipResult, error) {
	eng := sess.Engine

	if eng.HasWon() {
		return nil, ErrGameAlreadyWon
	}
	faceUp, err := eng.IsFaceUp(position)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if faceUp {
		return nil, ErrCardAlreadyFaceUp
	}

	_, secondFlip := eng.PendingSelection()
	matched, err := eng.Flip(position)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	now := s.now()
	pos := position
	state := eng.GetState()
	result := &FlipResult{
		Position:  position,
		Matched:   matched,
		Won:       state.Won,
		GameState: state,
		Events: []GameEvent{{
			Type:      "flip",
			Message:   fmt.Sprintf("Flipped card %d", position),
			Timestamp: now,
			Position:  &pos,
		}},
	}

	switch {
	case !secondFlip:
		result.Message = "Card flipped"
	case matched:
		result.Message = "Match found! " + state.PairsProgress
		result.Events = append(result.Events, GameEvent{
			Type:      "match",
			Message:   state.PairsProgress,
			Timestamp: now,
			Position:  &pos,
		})
	default:
		result.Message = "No match, try again"
		result.Events = append(result.Events, GameEvent{
			Type:      "mismatch",
			Message:   "Cards will turn back on the next flip",
			Timestamp: now,
			Position:  &pos,
		})
	}

	if state.Won {
		result.Message = victoryMessage
		result.Events = append(result.Events, GameEvent{
			Type:      "victory",
			Message:   fmt.Sprintf("%s in %d moves", victoryMessage, state.MoveCount),
			Timestamp: now,
		})
	}

	return result, nil
}

// Reset replaces the session's game with a freshly shuffled deck of the same board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	sess.Lock()
	config := sess.Engine.GetConfig()
	config.Seed = s.newSeed()
	state, err := s.replaceGame(sess, config)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	s.persist(sessionID, "reset")
	return state, nil
}

// ChangeBoardSize starts a new default-icon game with the given board size
func (s *gameServiceImpl) ChangeBoardSize(ctx context.Context, sessionID string, size engine.BoardSize) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	config := &engine.GameConfig{BoardSize: size, Seed: s.newSeed()}
	sess.Lock()
	state, err := s.replaceGame(sess, config)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	s.persist(sessionID, "board size change")
	return state, nil
}

// PlayCustomGame starts the named custom game in an existing session
func (s *gameServiceImpl) PlayCustomGame(ctx context.Context, sessionID, gameName string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	config, err := s.customConfig(gameName)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	state, err := s.replaceGame(sess, config)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	s.persist(sessionID, "custom game load")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.touch(sessionID)

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// GetFlipHistory returns paginated flip history
func (s *gameServiceImpl) GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	sess.Lock()
	history := sess.Engine.GetFlipHistory()
	sess.Unlock()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryLimit {
		opts.Limit = engine.MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	flips := []engine.FlipRecord{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			flips = append(flips, history[i])
		}
	} else if start < total {
		flips = append(flips, history[start:end]...)
	}

	return &HistoryResponse{
		Flips:       flips,
		TotalFlips:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListCustomGames returns the stored custom games
func (s *gameServiceImpl) ListCustomGames(ctx context.Context) ([]*CustomGameInfo, error) {
	return s.games.ListGames()
}

// GetCustomGame loads one custom game by name
func (s *gameServiceImpl) GetCustomGame(ctx context.Context, name string) (*engine.CustomGame, error) {
	game, err := s.games.LoadGame(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCustomGameNotFound, name, err)
	}
	return game, nil
}

// CreateCustomGame validates, uploads and stores a new custom game
func (s *gameServiceImpl) CreateCustomGame(ctx context.Context, req CreateCustomGameRequest) (*engine.CustomGame, error) {
	name := strings.TrimSpace(req.Name)
	if err := engine.ValidateGameName(name); err != nil {
		return nil, err
	}
	if len(req.ImageURLs) > 0 && len(req.Uploads) > 0 {
		return nil, fmt.Errorf("%w: provide either image URLs or uploads, not both", engine.ErrInvalidConfig)
	}

	count := len(req.ImageURLs) + len(req.Uploads)
	if _, err := engine.BoardSizeForPairs(count); err != nil {
		return nil, fmt.Errorf("%w: %d images do not fit any board (want %d, %d or %d)", engine.ErrInvalidConfig,
			count, engine.Easy.NumPairs(), engine.Medium.NumPairs(), engine.Hard.NumPairs())
	}

	// Fast path only; SaveGame creates the file exclusively
	if s.games.Exists(name) {
		return nil, fmt.Errorf("%w: a game already exists with name '%s'", ErrCustomGameExists, name)
	}

	images := req.ImageURLs
	if len(req.Uploads) > 0 {
		uploaded, err := s.uploadImages(ctx, name, req.Uploads)
		if err != nil {
			return nil, err
		}
		images = uploaded
	}

	game := &engine.CustomGame{
		Name:      name,
		Images:    images,
		CreatedAt: s.now().Unix(),
	}
	if err := engine.ValidateCustomGame(game); err != nil {
		return nil, err
	}
	if err := s.games.SaveGame(game); err != nil {
		return nil, fmt.Errorf("failed to save custom game: %w", err)
	}

	log.Info().Str("game", name).Int("images", len(images)).Str("board", game.BoardSize.String()).Msg("custom game created")
	return game, nil
}

// SubmitScore records the score of a won session on the leaderboard
func (s *gameServiceImpl) SubmitScore(ctx context.Context, sessionID, playerName string) (*ScoreEntry, error) {
	if s.scores == nil {
		return nil, ErrLeaderboardUnavailable
	}

	playerName = strings.TrimSpace(playerName)
	if playerName == "" || len([]rune(playerName)) > maxPlayerNameLength {
		return nil, fmt.Errorf("%w: name must be 1 to %d characters", ErrInvalidPlayerName, maxPlayerNameLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	sess.Lock()
	entry, err := s.submitScore(ctx, sess, playerName)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	s.persist(sessionID, "score submission")
	return entry, nil
}

// submitScore records the score of a locked session
func (s *gameServiceImpl) submitScore(ctx context.Context, sess *Session, playerName string) (*ScoreEntry, error) {
	if !sess.Engine.HasWon() {
		return nil, ErrGameNotWon
	}
	if sess.ScoreSubmitted {
		return nil, ErrScoreAlreadySubmitted
	}

	config := sess.Engine.GetConfig()
	elapsed := elapsedSeconds(sess)
	moves := sess.Engine.MoveCount()
	entry := &ScoreEntry{
		ID:              uuid.NewString(),
		SessionID:       sess.ID,
		PlayerName:      playerName,
		Difficulty:      config.BoardSize,
		GameName:        config.Name,
		Moves:           moves,
		DurationSeconds: elapsed,
		Score:           ComputeScore(config.BoardSize, moves, elapsed),
		CreatedAt:       s.now().UTC(),
	}

	if err := s.scores.AddScore(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	sess.ScoreSubmitted = true
	return entry, nil
}

// Leaderboard returns the best scores, optionally for one difficulty
func (s *gameServiceImpl) Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*ScoreEntry, error) {
	if s.scores == nil {
		return nil, ErrLeaderboardUnavailable
	}

	var difficulty *engine.BoardSize
	if d := strings.TrimSpace(query.Difficulty); d != "" && !strings.EqualFold(d, "all") {
		size, err := engine.ParseBoardSize(d)
		if err != nil {
			return nil, err
		}
		difficulty = &size
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.scores.TopScores(ctx, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}

// ComputeScore rewards finishing in few moves and little time
func ComputeScore(size engine.BoardSize, moves, seconds int) int {
	pairs := size.NumPairs()
	extraMoves := moves - pairs
	if extraMoves < 0 {
		extraMoves = 0
	}
	if seconds < 0 {
		seconds = 0
	}

	score := pairs*100 - extraMoves*10 - seconds
	if score < 0 {
		return 0
	}
	return score
}

func (s *gameServiceImpl) buildConfig(opts NewGameOptions) (*engine.GameConfig, error) {
	if strings.TrimSpace(opts.GameName) != "" {
		return s.customConfig(opts.GameName)
	}

	size := engine.Easy
	if strings.TrimSpace(opts.BoardSize) != "" {
		parsed, err := engine.ParseBoardSize(opts.BoardSize)
		if err != nil {
			return nil, err
		}
		size = parsed
	}

	return &engine.GameConfig{BoardSize: size, Seed: s.newSeed()}, nil
}

func (s *gameServiceImpl) customConfig(name string) (*engine.GameConfig, error) {
	name = strings.TrimSpace(name)
	game, err := s.games.LoadGame(name)
	if err != nil {
		return nil, fmt.Errorf("%w: sorry, we couldn't find any such game, %s: %v", ErrCustomGameNotFound, name, err)
	}
	return engine.GameConfigFromCustom(game, s.newSeed())
}

// replaceGame swaps the engine of a locked session for a new one; all flip state is discarded
func (s *gameServiceImpl) replaceGame(sess *Session, config *engine.GameConfig) (*engine.GameState, error) {
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	sess.Engine = eng
	sess.StartedAt = s.now()
	sess.ScoreSubmitted = false
	return eng.GetState(), nil
}

func (s *gameServiceImpl) uploadImages(ctx context.Context, name string, uploads []ImageUpload) ([]string, error) {
	if s.images == nil {
		return nil, ErrImageStorageUnavailable
	}

	prefix := slug.Make(name)
	stamp := s.now().UnixMilli()
	urls := make([]string, 0, len(uploads))
	for i, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		if ext == "" {
			ext = ".jpg"
		}
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}

		key := fmt.Sprintf("images/%s/%d-%d%s", prefix, stamp, i, ext)
		url, err := s.images.Put(ctx, key, contentType, upload.Body, upload.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %d: %w", i+1, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()

	config := sess.Engine.GetConfig()
	return &SessionInfo{
		ID:             sess.ID,
		GameName:       config.Name,
		BoardSize:      config.BoardSize,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		StartedAt:      sess.StartedAt,
		ScoreSubmitted: sess.ScoreSubmitted,
		GameState:      sess.Engine.GetState(),
	}
}

func (s *gameServiceImpl) touch(sessionID string) {
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("session", sessionID).Msg("failed to update last access")
	}
}

func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msgf("failed to persist session after %s", after)
	}
}

// elapsedSeconds measures from the start of the game to its last flip
func elapsedSeconds(sess *Session) int {
	last := sess.Engine.GetLastFlip()
	if last == nil || sess.StartedAt.IsZero() {
		return 0
	}
	elapsed := time.UnixMilli(last.Timestamp).Sub(sess.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Second)
}
