package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the config used when a session names none
const DefaultConfigName = "classic"

// Manager loads game variants from a directory of JSON files and caches them
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

var _ service.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	m.defaultConfig = m.resolveDefault()
	return m, nil
}

// LoadConfig loads a configuration by name, with or without the .json suffix
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: bad name %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	config, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}

	m.configs[name] = config
	return config, nil
}

func (m *Manager) readConfig(name string) (*engine.GameConfig, error) {
	config, err := engine.LoadGameConfig(filepath.Join(m.configDir, name+".json"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrConfigNotFound
	case errors.Is(err, engine.ErrInvalidGameConfig):
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return config, nil
}

// ListConfigs returns every valid configuration in the directory sorted by id
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	configs := make([]*service.ConfigInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		config, err := m.LoadConfig(name)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping config")
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:     entry.Name(),
			ConfigID:     name,
			Name:         config.Name,
			Description:  config.Description,
			GameSize:     config.GameSize,
			InitialTiles: config.InitialTiles,
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached configurations and re-resolves the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	def := m.resolveDefault()

	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
}

// resolveDefault picks classic, then the first valid file, then the built-in
// variant. It must be called without holding mu.
func (m *Manager) resolveDefault() *engine.GameConfig {
	if config, err := m.LoadConfig(DefaultConfigName); err == nil {
		return config
	}

	configs, err := m.ListConfigs()
	if err == nil && len(configs) > 0 {
		if config, err := m.LoadConfig(configs[0].ConfigID); err == nil {
			return config
		}
	}

	log.Debug().Str("dir", m.configDir).Msg("no config files, using built-in default")
	return engine.DefaultGameConfig()
}

// SaveConfig validates and writes a configuration to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidConfig, name)
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	saved := *config
	saved.SpawnWeights = append([]engine.SpawnWeight(nil), config.SpawnWeights...)
	saved.ApplyDefaults()

	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, name+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = &saved
	m.mu.Unlock()

	log.Info().Str("config", name).Int("game_size", saved.GameSize).Msg("config saved")
	return nil
}

// Count returns the number of cached configurations
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
