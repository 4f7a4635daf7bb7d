// Package websocket pushes live board updates to browsers watching a session.
//
// A central Hub owns every connection. Clients subscribe with
// GET /ws?session=<id>; after each state change the API broadcasts the new
// board snapshot to the clients of that session only. Incoming messages are
// ignored.
//
// Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "victory", "data": {"moves": 9}}
//
// Snapshots come from engine.GameState, so face-down cards never reveal
// their identity over the wire.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(sessionID, state)
//
// Broadcasting never blocks: messages go through a buffered queue and are
// dropped when it is full. A client whose own buffer fills up is disconnected.
package websocket
