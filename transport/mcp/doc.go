// Package mcp exposes the memory match game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST API,
// so agents and browsers share the same sessions and the WebSocket viewers see
// agent moves live.
//
// MCP Tools:
//   - create_session: new game by board size or custom game name
//   - game_state: board as text, face-down cards shown as ##
//   - flip: flip the card at a position
//   - reset_game, change_board_size, play_custom_game: start over
//   - list_custom_games: stored image sets
//   - flip_history: paginated flip log
//   - submit_score, leaderboard: scores of won games
//   - game_instructions: rules and scoring
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode: POST /mcp with a JSON-RPC body
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
