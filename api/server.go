package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/assets"
	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
	"github.com/wricardo/mcp-training/memorymatch/transport/websocket"
)

const (
	// maxUploadMemory is the part of a multipart form kept in memory; the rest spills to disk
	maxUploadMemory = 8 << 20
	// maxUploadBody caps a whole custom game upload (12 images at the per-image limit)
	maxUploadBody = 12*assets.MaxImageBytes + 1<<20
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	imagesDir string
}

// Option configures optional server features
type Option func(*Server)

// WithImagesDir serves the local asset directory under /images/
func WithImagesDir(dir string) Option {
	return func(s *Server) {
		s.imagesDir = dir
	}
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer, logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/flip", s.handleFlip).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/board-size", s.handleChangeBoardSize).Methods("POST")
	api.HandleFunc("/sessions/{id}/custom-game", s.handlePlayCustomGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/score", s.handleSubmitScore).Methods("POST")

	// Leaderboard
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods("GET")

	// Custom games
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games/{name}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/board-sizes", s.handleBoardSizes).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Local image keys start with images/, so the directory is served unstripped
	if s.imagesDir != "" {
		s.router.PathPrefix("/images/").Handler(imageHeaders(http.FileServer(http.Dir(s.imagesDir))))
	}
}

// imageHeaders keeps uploaded files from running as documents on this origin
func imageHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests writes one debug line per request
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, service.ErrCustomGameNotFound),
		errors.Is(err, config.ErrGameNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrCustomGameExists),
		errors.Is(err, service.ErrGameAlreadyWon),
		errors.Is(err, service.ErrScoreAlreadySubmitted),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrCardAlreadyFaceUp),
		errors.Is(err, service.ErrGameNotWon),
		errors.Is(err, service.ErrInvalidPlayerName),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, engine.ErrInvalidBoardSize),
		errors.Is(err, config.ErrInvalidGame),
		errors.Is(err, assets.ErrUnsupportedImage),
		errors.Is(err, assets.ErrImageTooLarge):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrLeaderboardUnavailable),
		errors.Is(err, service.ErrImageStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// broadcast pushes the new board to everyone watching the session
func (s *Server) broadcast(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(hubKey(sessionID), state)
	}
}

func (s *Server) broadcastEvent(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(hubKey(sessionID), event, data)
	}
}

// hubKey matches the session manager's case-insensitive IDs
func hubKey(sessionID string) string {
	return strings.ToLower(strings.TrimSpace(sessionID))
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var opts service.NewGameOptions
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	info, err := s.service.CreateSession(r.Context(), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastEvent(sessionID, websocket.EventSessionDeleted, nil)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Position *int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Position == nil {
		respondError(w, http.StatusBadRequest, "position is required")
		return
	}

	result, err := s.service.Flip(r.Context(), sessionID, *req.Position)
	if err != nil {
		log.Info().Str("session", sessionID).Int("position", *req.Position).Err(err).Msg("flip rejected")
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.GameState)
	if result.Won {
		s.broadcastEvent(sessionID, websocket.EventVictory, map[string]int{
			"moves": result.GameState.MoveCount,
		})
	}

	log.Info().
		Str("session", sessionID).
		Int("position", result.Position).
		Bool("matched", result.Matched).
		Bool("won", result.Won).
		Int("pairs", result.GameState.PairsFound).
		Int("moves", result.GameState.MoveCount).
		Msg("flip")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, state)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleChangeBoardSize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		BoardSize string `json:"board_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	size, err := engine.ParseBoardSize(req.BoardSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := s.service.ChangeBoardSize(r.Context(), sessionID, size)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, state)
	s.broadcastEvent(sessionID, websocket.EventNewGame, map[string]string{"board_label": state.BoardLabel})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("New %s game", state.BoardLabel),
		"state":   state,
	})
}

func (s *Server) handlePlayCustomGame(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.PlayCustomGame(r.Context(), sessionID, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, state)
	s.broadcastEvent(sessionID, websocket.EventNewGame, map[string]string{"game_name": state.GameName})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("You're now playing '%s'!", state.GameName),
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetFlipHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		PlayerName string `json:"player_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := s.service.SubmitScore(r.Context(), sessionID, req.PlayerName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().Str("session", sessionID).Str("player", entry.PlayerName).Int("score", entry.Score).Msg("score submitted")
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := service.LeaderboardQuery{
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			query.Limit = l
		}
	}

	entries, err := s.service.Leaderboard(r.Context(), query)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(entries),
		"scores": entries,
	})
}

// Custom Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListCustomGames(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	game, err := s.service.GetCustomGame(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// handleCreateGame accepts JSON {name, image_urls} or a multipart form
// with a name field and one images file part per image
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCustomGameRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		req.Name = r.FormValue("name")
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload %s: %v", header.Filename, err))
				return
			}
			defer file.Close()

			req.Uploads = append(req.Uploads, service.ImageUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			})
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	game, err := s.service.CreateCustomGame(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Custom game '%s' created", game.Name),
		"game":    game,
	})
}

func (s *Server) handleBoardSizes(w http.ResponseWriter, r *http.Request) {
	type boardSize struct {
		Name     string `json:"name"`
		Label    string `json:"label"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		NumCards int    `json:"num_cards"`
		NumPairs int    `json:"num_pairs"`
	}

	sizes := make([]boardSize, 0, len(engine.AllBoardSizes))
	for _, size := range engine.AllBoardSizes {
		sizes = append(sizes, boardSize{
			Name:     size.String(),
			Label:    size.Label(),
			Width:    size.Width(),
			Height:   size.Height(),
			NumCards: size.NumCards(),
			NumPairs: size.NumPairs(),
		})
	}

	respondJSON(w, http.StatusOK, sizes)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, hubKey(sessionID))
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
