package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidDirection is the engine sentinel so both checks match
	ErrInvalidDirection = engine.ErrInvalidDirection
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error)
	NewGame(ctx context.Context, sessionID string) (*engine.GameState, error)
	// Showcase fills the free cells with every tile value up to the board
	// capacity; a debug aid for checking how tiles render
	Showcase(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Best scores
	GetHighScores(ctx context.Context) ([]HighScore, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Replace(id string) (*Session, error)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// HighScoreStore keeps the best score per game size
type HighScoreStore interface {
	// Best returns the best recorded score for gameSize, 0 when none
	Best(ctx context.Context, gameSize int) (int, error)
	// Record stores a finished game and reports whether it set a new best
	Record(ctx context.Context, result GameResult) (bool, error)
	List(ctx context.Context) ([]HighScore, error)
}

// Session represents an active game session. The embedded mutex serializes
// turns on Round.
type Session struct {
	sync.Mutex

	ID             string
	Round          *engine.Round
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
	GamesPlayed    int
	History        []TurnHistoryEntry
	ScoreRecorded  bool
}
