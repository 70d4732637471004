package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Default player-facing messages
const (
	DefaultWelcomeMessage      = "Slide tiles with up, down, left or right. Equal tiles merge!"
	DefaultGameOverMessage     = "Game over! Final score: %d"
	DefaultNewHighScoreMessage = "New best score: %d!"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if _, ok := spawnTable[config.GameSize]; !ok {
		return fmt.Errorf("config validation: %w: game_size must be between %d and %d, got %d",
			ErrUnsupportedGameSize, MinGameSize, MaxGameSize, config.GameSize)
	}

	maxInitial := config.GameSize*config.GameSize - 1
	if config.InitialTiles < 0 || config.InitialTiles > maxInitial {
		return fmt.Errorf("config validation: initial_tiles must be between 1 and %d, got %d",
			maxInitial, config.InitialTiles)
	}

	if len(config.SpawnWeights) > 0 {
		if err := validateSpawnWeights(config.SpawnWeights, config.GameSize); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}

	if config.Messages.GameOver != "" && !strings.Contains(config.Messages.GameOver, "%d") {
		return fmt.Errorf("config validation: messages.game_over must contain %%d for the final score")
	}
	if config.Messages.NewHighScore != "" && !strings.Contains(config.Messages.NewHighScore, "%d") {
		return fmt.Errorf("config validation: messages.new_high_score must contain %%d for the score")
	}

	return nil
}

// ApplyDefaults fills optional fields left empty
func (c *GameConfig) ApplyDefaults() {
	if c.InitialTiles == 0 {
		c.InitialTiles = 1
	}
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = DefaultWelcomeMessage
	}
	if c.Messages.GameOver == "" {
		c.Messages.GameOver = DefaultGameOverMessage
	}
	if c.Messages.NewHighScore == "" {
		c.Messages.NewHighScore = DefaultNewHighScoreMessage
	}
}

// DefaultGameConfig returns the built-in classic variant
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "Classic",
		Description: "The classic 4x4 board",
		GameSize:    DefaultGameSize,
	}
	config.ApplyDefaults()
	return config
}

// LoadGameConfig reads and parses the JSON configuration at path. File
// errors are returned unwrapped so callers can match fs.ErrNotExist.
func LoadGameConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGameConfig, err)
	}
	return config, nil
}

// ParseGameConfig decodes, validates and defaults a JSON configuration
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	return &config, nil
}
