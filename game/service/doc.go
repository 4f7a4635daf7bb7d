// Package service provides the business logic layer for the Memory Match game.
//
// The service package implements:
//   - Multi-session game management
//   - Flip processing with the player-facing guards the engine leaves out
//   - Custom game creation, including image uploads
//   - Score calculation and the leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// CustomGameStore, ScoreStore and ImageStore are the storage backends; the
// last two are optional.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	games := config.NewManager("games")
//	gameService := service.NewGameService(sessionMgr, games, scoreStore, imageStore)
//
//	sessionInfo, err := gameService.CreateSession(ctx, service.NewGameOptions{BoardSize: "medium"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Flip(ctx, sessionInfo.ID, 0)
//
// Guards:
//
// Flipping a card of a won game returns ErrGameAlreadyWon, a face-up card
// ErrCardAlreadyFaceUp and a position off the board ErrInvalidPosition.
// None of them change the game.
//
// Concurrency:
//
// Operations that replace or flip a game take the service's write lock, reads
// take its read lock. Each Session also carries its own mutex guarding its
// engine and timestamps; the session manager and persistence take it too, so
// background saves see a consistent game. Session locks are always taken after
// the manager's and never held while calling the manager. Custom game image
// uploads run without the service lock.
//
// Scoring:
//
// A won game may be submitted to the leaderboard once. The score starts at
// 100 points per pair and loses 10 points per move beyond the pair count and
// 1 point per second between the start of the game and its last flip.
package service
