// Package session provides session management for the Memory Match game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - File persistence that replays recorded flips on load
//   - Scheduled expiry of idle sessions
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores one JSON file per session holding the game config
// (seed included) and the flip log; loading rebuilds the board with
// engine.Replay. Janitor runs the periodic jobs on a gocron scheduler.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters. Lookups are case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	janitor := session.NewJanitor(manager, persistence, session.DefaultJanitorConfig())
//	if err := janitor.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer janitor.Shutdown()
//
// Cleanup:
//
// Idle sessions are evicted from memory but keep their file, so the next
// access reloads them. Deleting a session file removes the session from
// memory on the next sync.
package session
