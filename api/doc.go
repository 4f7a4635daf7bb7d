// Package api provides the HTTP REST API of the memory match server.
//
// Routes live on a gorilla/mux router wrapped in chi's RequestID, RealIP and
// Recoverer middleware.
//
// Session Management:
//   - POST /api/sessions - Create a session: {"board_size": "medium"} or {"game_name": "birds"}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Board snapshot
//   - POST /api/sessions/{id}/flip - Flip a card: {"position": 3}
//   - POST /api/sessions/{id}/reset - Reshuffle the same board
//   - POST /api/sessions/{id}/board-size - New default game: {"board_size": "hard"}
//   - POST /api/sessions/{id}/custom-game - Play a custom game: {"name": "birds"}
//   - GET /api/sessions/{id}/history - Flip history (?page&limit&order)
//   - POST /api/sessions/{id}/score - Submit a won game: {"player_name": "ada"}
//
// Leaderboard and custom games:
//   - GET /api/leaderboard - Top scores (?difficulty=easy|medium|hard|all&limit=n)
//   - GET /api/games, GET /api/games/{name}
//   - POST /api/games - JSON {"name", "image_urls"} or multipart name + images[]
//   - GET /api/board-sizes
//
// Other:
//   - GET /ws?session={id} - Live board updates (see transport/websocket)
//   - GET /images/... - Uploaded images when stored locally
//   - GET /health
//
// Errors are JSON objects with an "error" field. Not found maps to 404,
// a taken name or a finished game to 409, and rejected input to 400:
//
//	{"error": "invalid move: card is already face-up"}
//
// Every state change is broadcast to the session's WebSocket clients.
package api
