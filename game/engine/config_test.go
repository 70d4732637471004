package engine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:         "Test Config",
		Description:  "A valid test configuration",
		GameSize:     4,
		InitialTiles: 2,
		Messages: Messages{
			Welcome:      "Welcome to the test game!",
			GameOver:     "Over with %d",
			NewHighScore: "Best %d",
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *GameConfig)
		wantErr string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"game size too small", func(c *GameConfig) { c.GameSize = 2 }, "game_size"},
		{"game size too large", func(c *GameConfig) { c.GameSize = 6 }, "game_size"},
		{"negative initial tiles", func(c *GameConfig) { c.InitialTiles = -1 }, "initial_tiles"},
		{"initial tiles fill grid", func(c *GameConfig) { c.InitialTiles = 16 }, "initial_tiles"},
		{"zero weight", func(c *GameConfig) { c.SpawnWeights = []SpawnWeight{{Power: 1, Weight: 0}} }, "weight must be > 0"},
		{"zero power", func(c *GameConfig) { c.SpawnWeights = []SpawnWeight{{Power: 0, Weight: 1}} }, "power must be >= 1"},
		{"huge power", func(c *GameConfig) { c.SpawnWeights = []SpawnWeight{{Power: 64, Weight: 1}} }, "power must be <= 35"},
		{"game over format", func(c *GameConfig) { c.Messages.GameOver = "Game over" }, "messages.game_over"},
		{"high score format", func(c *GameConfig) { c.Messages.NewHighScore = "Yay" }, "messages.new_high_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.modify(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGameConfig_UnsupportedSizeIsSentinel(t *testing.T) {
	config := createValidConfig()
	config.GameSize = 7
	if err := ValidateGameConfig(config); !errors.Is(err, ErrUnsupportedGameSize) {
		t.Errorf("Expected ErrUnsupportedGameSize, got: %v", err)
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestApplyDefaults(t *testing.T) {
	config := &GameConfig{Name: "x", Description: "y", GameSize: 3}
	config.ApplyDefaults()

	if config.InitialTiles != 1 {
		t.Errorf("Expected 1 initial tile, got %d", config.InitialTiles)
	}
	if config.Messages.Welcome != DefaultWelcomeMessage {
		t.Errorf("Expected default welcome, got %q", config.Messages.Welcome)
	}
	if config.Messages.GameOver != DefaultGameOverMessage {
		t.Errorf("Expected default game over, got %q", config.Messages.GameOver)
	}
	if config.Messages.NewHighScore != DefaultNewHighScoreMessage {
		t.Errorf("Expected default high score message, got %q", config.Messages.NewHighScore)
	}
}

func TestDefaultGameConfig(t *testing.T) {
	config := DefaultGameConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.GameSize != DefaultGameSize {
		t.Errorf("Expected game size %d, got %d", DefaultGameSize, config.GameSize)
	}
}

const testConfigJSON = `{
	"name": "Test Config",
	"description": "Test description",
	"game_size": 3,
	"spawn_weights": [{"power": 2, "weight": 1}],
	"messages": {"welcome": "Welcome!"}
}`

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")

	if err := os.WriteFile(tempFile, []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.GameSize != 3 {
		t.Errorf("Expected game size 3, got %d", config.GameSize)
	}
	if len(config.SpawnWeights) != 1 || config.SpawnWeights[0].Power != 2 {
		t.Errorf("Expected custom spawn weights, got %v", config.SpawnWeights)
	}
	if config.InitialTiles != 1 {
		t.Errorf("Expected defaulted initial tiles 1, got %d", config.InitialTiles)
	}
	if config.Messages.GameOver != DefaultGameOverMessage {
		t.Errorf("Expected defaulted game over message, got %q", config.Messages.GameOver)
	}

	if _, err := LoadGameConfig("nonexistent.json"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadGameConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGameConfig(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"name":"x","description":"y","game_size":7}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	_, err = LoadGameConfig(bad)
	if !errors.Is(err, ErrInvalidGameConfig) {
		t.Errorf("Expected ErrInvalidGameConfig, got %v", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Invalid content must not look like a missing file: %v", err)
	}
}

func TestParseGameConfig_Invalid(t *testing.T) {
	if _, err := ParseGameConfig([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := ParseGameConfig([]byte(`{"name":"x","description":"y","game_size":9}`)); !errors.Is(err, ErrUnsupportedGameSize) {
		t.Errorf("Expected ErrUnsupportedGameSize, got %v", err)
	}
}
