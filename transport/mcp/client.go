package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching cards. Flip two cards per move; a match stays face-up,
a mismatch turns back over on your next flip. Fewer moves and less time give a higher score.

AVAILABLE TOOLS:
- create_session: Start a new game (board_size easy|medium|hard, or a custom game_name)
- game_state: Show the board
- flip: Flip the card at a position
- reset_game: Reshuffle the current board
- change_board_size: Start a new game with another board size
- play_custom_game: Start a new game with a custom image set
- list_custom_games: List the custom image sets
- flip_history: View past flips
- submit_score: Put a won game on the leaderboard
- leaderboard: Show the best scores
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func boardSizeProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"easy", "medium", "hard"},
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. A game_name loads a custom game and takes precedence over board_size.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_size": boardSizeProperty("Board size (default easy)"),
				"game_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of a custom game (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board. Face-down cards show as ##.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip",
		Description: "Flip the card at a position (0-based, row by row)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"position": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Card position",
				},
			},
			Required: []string{"session_id", "position"},
		},
	}, c.handleFlip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reshuffle the current board and start over",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "change_board_size",
		Description: "Start a new game with the default icons on another board size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"board_size": boardSizeProperty("New board size"),
			},
			Required: []string{"session_id", "board_size"},
		},
	}, c.handleChangeBoardSize)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play_custom_game",
		Description: "Start a new game with a stored custom image set",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Custom game name",
				},
			},
			Required: []string{"session_id", "name"},
		},
	}, c.handlePlayCustomGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_custom_games",
		Description: "List the stored custom games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListCustomGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_history",
		Description: "Get the flip history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Flips per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFlipHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_score",
		Description: "Submit the score of a won game to the leaderboard",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Name shown on the leaderboard",
				},
			},
			Required: []string{"session_id", "player_name"},
		},
	}, c.handleSubmitScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Show the best scores",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"difficulty": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all", "easy", "medium", "hard"},
					"description": "Board size filter (default all)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and scoring",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.NewGameOptions{
		BoardSize: request.GetString("board_size", ""),
		GameName:  request.GetString("game_name", ""),
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatGameState(session.GameState))), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleFlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	position, err := request.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.FlipResult
	err = c.apiCall(ctx, "POST", sessionPath(sessionID, "/flip"), map[string]int{"position": position}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFlipResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleChangeBoardSize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	size, err := request.RequireString("board_size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	err = c.apiCall(ctx, "POST", sessionPath(sessionID, "/board-size"), map[string]string{"board_size": size}, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handlePlayCustomGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	err = c.apiCall(ctx, "POST", sessionPath(sessionID, "/custom-game"), map[string]string{"name": name}, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleListCustomGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var games []service.CustomGameInfo
	if err := c.apiCall(ctx, "GET", "/api/games", nil, &games); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(games) == 0 {
		return mcp.NewToolResultText("No custom games yet."), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Custom Games (%d):\n\n", len(games)))
	for _, game := range games {
		b.WriteString(fmt.Sprintf("• %s (%s, %d images)\n", game.Name, game.BoardLabel, game.NumImages))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleFlipHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleSubmitScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	player, err := request.RequireString("player_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var entry service.ScoreEntry
	err = c.apiCall(ctx, "POST", sessionPath(sessionID, "/score"), map[string]string{"player_name": player}, &entry)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Score submitted for %s: %d (%s, %d moves, %ds)",
		entry.PlayerName, entry.Score, entry.Difficulty, entry.Moves, entry.DurationSeconds)), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := url.Values{}
	if difficulty := request.GetString("difficulty", ""); difficulty != "" {
		params.Set("difficulty", difficulty)
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}

	path := "/api/leaderboard"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Count  int                  `json:"count"`
		Scores []service.ScoreEntry `json:"scores"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Scores)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🃏 Memory Match - Complete Instructions

GAME OBJECTIVE:
Every card has exactly one twin. Find all pairs.

BOARDS:
• easy: 4 x 2 (8 cards, 4 pairs)
• medium: 6 x 3 (18 cards, 9 pairs)
• hard: 6 x 4 (24 cards, 12 pairs)
Positions are numbered from 0, left to right and top to bottom.

FLIPPING:
• Flip one card, then a second one. Two flips make one move.
• Same picture: both cards stay face-up as a matched pair.
• Different pictures: both stay visible until your next flip, which turns them back over.
• Flipping a card that is already face-up is an invalid move.
• Once every pair is found you win; further flips are refused.

SCORING:
score = pairs × 100 − 10 × (moves − pairs) − seconds played, never below 0.
A perfect game needs exactly one move per pair.

CUSTOM GAMES:
Custom games replace the icons with your own images (4, 9 or 12 of them).
Use list_custom_games and play_custom_game.

STRATEGY TIPS:
1. Remember every card you have seen; mismatches still reveal information.
2. When you flip a card whose twin you have already seen, flip the twin next.
3. Otherwise flip an unseen card; a mismatch against an unseen card costs nothing extra.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	title := state.BoardLabel
	if state.GameName != "" {
		title = fmt.Sprintf("%s (%s)", state.GameName, state.BoardLabel)
	}
	b.WriteString(fmt.Sprintf("Board: %s | %s | %s\n\n", title, state.PairsProgress, state.MovesText))

	width := state.Width
	if width <= 0 {
		width = len(state.Cards)
	}
	for i, card := range state.Cards {
		b.WriteString(fmt.Sprintf("%3d:%-12s", card.Position, cardLabel(card)))
		if (i+1)%width == 0 {
			b.WriteString("\n")
		}
	}

	if state.Won {
		b.WriteString("\n🎉 All pairs found!")
	}
	return b.String()
}

// cardLabel shows ## for face-down cards and marks matched cards with *
func cardLabel(card engine.CardView) string {
	if !card.IsFaceUp {
		return "##"
	}
	label := card.ID
	if i := strings.LastIndex(label, "/"); i >= 0 && i < len(label)-1 {
		label = label[i+1:]
	}
	if len(label) > 10 {
		label = label[:10]
	}
	if card.IsMatched {
		return "*" + label
	}
	return label
}

func formatFlipResult(result *service.FlipResult) string {
	var b strings.Builder
	b.WriteString(result.Message)
	b.WriteString("\n\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Flip History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalFlips))

	for _, flip := range history.Flips {
		status := ""
		if flip.Matched {
			status = " ✓ match"
		}
		b.WriteString(fmt.Sprintf("%d. position %d: %s%s\n", flip.FlipNumber, flip.Position, flip.CardID, status))
	}
	return b.String()
}

func formatLeaderboard(entries []service.ScoreEntry) string {
	if len(entries) == 0 {
		return "Leaderboard is empty."
	}

	var b strings.Builder
	b.WriteString("Leaderboard:\n\n")
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%2d. %-16s %6d  %-6s %3d moves %4ds\n",
			i+1, e.PlayerName, e.Score, e.Difficulty, e.Moves, e.DurationSeconds))
	}
	return b.String()
}
