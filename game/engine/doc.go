// Package engine provides the core game logic for the Memory Match game.
//
// The engine package implements the game mechanics including:
//   - Deck construction from the default icon pool or custom images
//   - Seedable shuffling for reproducible boards
//   - Flip processing, match detection and the delayed hide of mismatches
//   - Move, pair and win accounting
//   - Read-only snapshots for presentation code
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameConfig selects the BoardSize, optional
// custom images and the shuffle seed. GameState is a snapshot handed to
// callers; face-down cards never expose their identity in it.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(&engine.GameConfig{
//		BoardSize: engine.Medium,
//		Seed:      engine.NewSeed(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	matched, err := gameEngine.Flip(3)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// The first flip of a move reveals a card. The second flip either matches it,
// leaving both cards face-up for good, or leaves both visible until the next
// first flip turns them back down. The game is won when every pair is matched.
//
// The engine is a plain state machine: it performs no I/O, takes no locks and
// does not refuse flips on face-up cards or won games. Those guards belong to
// the caller.
package engine
