// Command validate checks the custom game JSON files in a games directory.
// It checks:
//   - JSON structure and the name length rules
//   - Image count matches one of the board sizes (4, 9 or 12 pairs)
//   - No empty or duplicate images
//   - The file name matches the slug the server stores the game under
//   - Image references are absolute http(s) URLs or served /images/ paths
//
// Usage: validate [games-dir]   (defaults to ./games)
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateGameFile loads and validates a single custom game file.
func validateGameFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	game, err := engine.LoadCustomGameFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Name: %q", game.Name),
		fmt.Sprintf("✓ Board: %s (%d images)", game.BoardSize.Label(), len(game.Images)))

	if want := config.Key(game.Name) + ".json"; result.File != want {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("File name should be %s for game %q", want, game.Name))
	}

	for i, image := range game.Images {
		if err := checkImageRef(image); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Image %d: %v", i+1, err))
		}
	}

	return result
}

func checkImageRef(ref string) error {
	if strings.HasPrefix(ref, "/images/") {
		return nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL or /images/ path", ref)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", ref)
	}
	return nil
}

// main scans the games directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	gamesDir := "games"
	if len(os.Args) > 1 {
		gamesDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(gamesDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding game files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No custom games found in %s\n", gamesDir)
		return
	}

	allValid := true
	for _, file := range files {
		result := validateGameFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All custom games are valid!")
	} else {
		fmt.Println("❌ Some custom games have errors")
		os.Exit(1)
	}
}
