// Command autoplay plays a memory match session against a running server
// using a perfect-memory strategy, optionally submitting the final score.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/settings"
)

const sessionFile = ".session"

// PlayOptions controls a single run
type PlayOptions struct {
	BoardSize string
	GameName  string
	SessionID string
	Player    string
	MaxFlips  int
	Delay     time.Duration
}

// PlayResult summarizes a finished run
type PlayResult struct {
	SessionID string
	Flips     int
	State     *engine.GameState
	Score     *service.ScoreEntry
}

var errNoFlip = errors.New("no flippable card left")

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play a memory match game through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "board-size", Usage: "easy, medium or hard"},
			&cli.StringFlag{Name: "game", Usage: "custom game to play"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "player", Usage: "submit the score under this name after winning"},
			&cli.IntFlag{Name: "max-flips", Value: 200, Usage: "give up after this many flips"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between flips"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := "info"
			if cmd.Bool("v") {
				level = "debug"
			}
			settings.ConfigureLogging(settings.LogSettings{Level: level, Pretty: true})

			opts := PlayOptions{
				BoardSize: cmd.String("board-size"),
				GameName:  cmd.String("game"),
				SessionID: cmd.String("continue"),
				Player:    cmd.String("player"),
				MaxFlips:  cmd.Int("max-flips"),
				Delay:     cmd.Duration("delay"),
			}
			if opts.SessionID == "" && opts.BoardSize == "" && opts.GameName == "" {
				if data, err := os.ReadFile(sessionFile); err == nil {
					opts.SessionID = strings.TrimSpace(string(data))
				}
			}

			client := NewClient(cmd.String("url"))
			result, err := Play(ctx, client, opts)
			if result != nil && result.SessionID != "" {
				if werr := os.WriteFile(sessionFile, []byte(result.SessionID), 0644); werr != nil {
					log.Warn().Err(werr).Msg("failed to save session id")
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "🎉 Won session %s in %d flips (%s)\n",
				result.SessionID, result.Flips, result.State.MovesText)
			if result.Score != nil {
				fmt.Fprintf(cmd.Root().Writer, "Score: %d for %s\n", result.Score.Score, result.Score.PlayerName)
			}
			return nil
		},
	}
}

// Play resumes or creates a session, resets it and flips until the game is won
func Play(ctx context.Context, client *Client, opts PlayOptions) (*PlayResult, error) {
	var state *engine.GameState
	var err error

	if opts.SessionID != "" {
		client.sessionID = opts.SessionID
		log.Info().Str("session", opts.SessionID).Msg("resuming session")
		if _, err = client.GetState(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to resume session, creating a new one")
			client.sessionID = ""
		}
	}

	if client.sessionID == "" {
		newGame := service.NewGameOptions{BoardSize: opts.BoardSize, GameName: opts.GameName}
		if _, err = client.CreateSession(ctx, newGame); err != nil {
			return nil, err
		}
		log.Info().Str("session", client.sessionID).Msg("session created")
	}

	result := &PlayResult{SessionID: client.sessionID}

	state, err = client.Reset(ctx)
	if err != nil {
		return result, err
	}
	log.Info().Str("board", state.BoardLabel).Str("game", state.GameName).Msg("game reset")

	strategy := NewMemoryStrategy()
	for !state.Won {
		if opts.MaxFlips > 0 && result.Flips >= opts.MaxFlips {
			result.State = state
			return result, fmt.Errorf("gave up after %d flips (%s)", result.Flips, state.PairsProgress)
		}

		pos := strategy.NextFlip(state)
		if pos < 0 {
			result.State = state
			return result, errNoFlip
		}

		flip, err := client.Flip(ctx, pos)
		if err != nil {
			result.State = state
			return result, err
		}
		result.Flips++
		state = flip.GameState
		strategy.Observe(state)

		log.Debug().Int("position", pos).Bool("matched", flip.Matched).Str("pairs", state.PairsProgress).Msg(flip.Message)

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				result.State = state
				return result, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}
	result.State = state

	if opts.Player != "" {
		entry, err := client.SubmitScore(ctx, opts.Player)
		if err != nil {
			return result, err
		}
		result.Score = entry
	}
	return result, nil
}
