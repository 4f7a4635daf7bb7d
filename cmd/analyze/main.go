// Command analyze prints a quick, human-readable summary of the sessions
// persisted in a sessions directory. Each session is replayed from its seed
// and flip log, so a file that no longer replays is reported as corrupt.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/session"
)

// SessionSummary is one row of the report
type SessionSummary struct {
	ID             string
	Board          string
	GameName       string
	PairsProgress  string
	MovesText      string
	Won            bool
	LastAccessedAt time.Time
}

func main() {
	dir := "sessions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir writes a summary of every session file in dir
func analyzeDir(w io.Writer, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list session files: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "No sessions found in %s\n", dir)
		return nil
	}

	var summaries []SessionSummary
	won := 0
	for _, file := range files {
		summary, err := summarize(file)
		if err != nil {
			fmt.Fprintf(w, "❌ %s: %v\n", filepath.Base(file), err)
			continue
		}
		if summary.Won {
			won++
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastAccessedAt.After(summaries[j].LastAccessedAt)
	})

	for _, s := range summaries {
		fmt.Fprintf(w, "\n=== Session %s ===\n", s.ID)
		fmt.Fprintf(w, "Board: %s\n", s.Board)
		if s.GameName != "" {
			fmt.Fprintf(w, "Custom game: %s\n", s.GameName)
		}
		fmt.Fprintf(w, "%s | %s\n", s.PairsProgress, s.MovesText)
		if s.Won {
			fmt.Fprintln(w, "✅ Won")
		} else {
			fmt.Fprintln(w, "⏳ In progress")
		}
		fmt.Fprintf(w, "Last active: %s\n", s.LastAccessedAt.Format(time.RFC3339))
	}

	fmt.Fprintf(w, "\n%d sessions, %d won, %d unreadable\n", len(summaries), won, len(files)-len(summaries))
	return nil
}

func summarize(path string) (SessionSummary, error) {
	data, err := session.ReadSessionFile(path)
	if err != nil {
		return SessionSummary{}, err
	}

	sess, err := data.Restore()
	if err != nil {
		return SessionSummary{}, fmt.Errorf("replay failed: %w", err)
	}

	state := sess.Engine.GetState()
	return SessionSummary{
		ID:             sess.ID,
		Board:          state.BoardLabel,
		GameName:       state.GameName,
		PairsProgress:  state.PairsProgress,
		MovesText:      state.MovesText,
		Won:            state.Won,
		LastAccessedAt: sess.LastAccessedAt,
	}, nil
}
