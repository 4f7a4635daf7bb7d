package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrInvalidConfig      = errors.New("invalid game configuration")
	ErrInvalidBoardSize   = errors.New("invalid board size")
	ErrPositionOutOfRange = errors.New("position out of range")
)

// ParseBoardSize converts a board size name ("easy", "medium", "hard") into a BoardSize
func ParseBoardSize(name string) (BoardSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Easy, fmt.Errorf("%w: %q", ErrInvalidBoardSize, name)
}

// BoardSizeForCards returns the board size holding exactly numCards cards
func BoardSizeForCards(numCards int) (BoardSize, error) {
	for _, size := range AllBoardSizes {
		if size.NumCards() == numCards {
			return size, nil
		}
	}
	return Easy, fmt.Errorf("%w: no board holds %d cards", ErrInvalidBoardSize, numCards)
}

// BoardSizeForPairs returns the board size holding exactly numPairs pairs
func BoardSizeForPairs(numPairs int) (BoardSize, error) {
	return BoardSizeForCards(numPairs * 2)
}

// ValidateGameConfig validates a game configuration before a deck is built
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if !config.BoardSize.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidBoardSize)
	}
	if !config.IsCustom() {
		return nil
	}

	numPairs := config.BoardSize.NumPairs()
	if len(config.CustomImages) != numPairs {
		return fmt.Errorf("%w: %s board needs %d images, got %d",
			ErrInvalidConfig, config.BoardSize, numPairs, len(config.CustomImages))
	}
	if err := validateImageSet(config.CustomImages); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateGameName checks the length rules for custom game names
func ValidateGameName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	n := len([]rune(trimmed))
	if n < MinGameNameLength || n > MaxGameNameLength {
		return fmt.Errorf("%w: name must be between %d and %d characters, got %d",
			ErrInvalidConfig, MinGameNameLength, MaxGameNameLength, n)
	}
	return nil
}

// ValidateCustomGame validates a custom game definition and fills in its board size
func ValidateCustomGame(game *CustomGame) error {
	if game == nil {
		return fmt.Errorf("%w: custom game is required", ErrInvalidConfig)
	}
	if err := ValidateGameName(game.Name); err != nil {
		return err
	}

	size, err := BoardSizeForPairs(len(game.Images))
	if err != nil {
		return fmt.Errorf("%w: %d images do not fit any board (want %d, %d or %d)",
			ErrInvalidConfig, len(game.Images), Easy.NumPairs(), Medium.NumPairs(), Hard.NumPairs())
	}
	if err := validateImageSet(game.Images); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	game.BoardSize = size
	return nil
}

// LoadCustomGameFile reads and validates a custom game JSON file
func LoadCustomGameFile(path string) (*CustomGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom game file: %w", err)
	}

	var game CustomGame
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to parse custom game: %w", err)
	}

	if err := ValidateCustomGame(&game); err != nil {
		return nil, err
	}
	return &game, nil
}

// GameConfigFromCustom builds a game configuration for a custom game
func GameConfigFromCustom(game *CustomGame, seed uint64) (*GameConfig, error) {
	if err := ValidateCustomGame(game); err != nil {
		return nil, err
	}

	images := make([]string, len(game.Images))
	copy(images, game.Images)

	return &GameConfig{
		Name:         game.Name,
		BoardSize:    game.BoardSize,
		CustomImages: images,
		Seed:         seed,
	}, nil
}

func validateImageSet(images []string) error {
	seen := make(map[string]int, len(images))
	for i, image := range images {
		if strings.TrimSpace(image) == "" {
			return fmt.Errorf("image %d is empty", i+1)
		}
		if prev, ok := seen[image]; ok {
			return fmt.Errorf("image %d duplicates image %d", i+1, prev+1)
		}
		seen[image] = i
	}
	return nil
}
