package service

import (
	"time"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// Event types reported by Move and BulkMove
const (
	EventMove      = "move"
	EventMerge     = "merge"
	EventSpawn     = "spawn"
	EventNoOp      = "no_op"
	EventGameOver  = "game_over"
	EventHighScore = "high_score"
	EventNewGame   = "new_game"
)

// Stop reason codes reported by BulkMove
const (
	StopGameOver         = "game_over"
	StopInvalidDirection = "invalid_direction"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GamesPlayed    int                `json:"games_played"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a single turn
type MoveResult struct {
	// Success is true when the turn changed the grid
	Success      bool              `json:"success"`
	GameState    *engine.GameState `json:"game_state"`
	Turn         engine.TurnResult `json:"turn"`
	Message      string            `json:"message"`
	Events       []GameEvent       `json:"events,omitempty"`
	NewHighScore bool              `json:"new_high_score,omitempty"`
	BestScore    int               `json:"best_score,omitempty"`
}

// BulkMoveResult contains the result of multiple turns
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int                 `json:"moves_executed"`
	RequestedMoves int                 `json:"requested_moves"`
	EffectiveMoves int                 `json:"effective_moves"`
	Success        bool                `json:"success"`
	GameState      *engine.GameState   `json:"game_state"`
	Events         []GameEvent         `json:"events"`
	Turns          []engine.TurnResult `json:"turns,omitempty"`
	StoppedReason  string              `json:"stopped_reason,omitempty"`
	StopReasonCode string              `json:"stop_reason_code,omitempty"` // game_over|invalid_direction
	StoppedOnMove  int                 `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool                `json:"truncated,omitempty"`
	Limit          int                 `json:"limit,omitempty"`

	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Final status aids
	GameOver      bool               `json:"game_over"`
	NewHighScore  bool               `json:"new_high_score,omitempty"`
	BestScore     int                `json:"best_score,omitempty"`
	Message       string             `json:"message,omitempty"`
	PossibleMoves []engine.Direction `json:"possible_moves,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type        string              `json:"type"` // "move", "merge", "spawn", "no_op", "game_over", "high_score", "new_game"
	Message     string              `json:"message"`
	Timestamp   time.Time           `json:"timestamp"`
	TileID      int                 `json:"tile_id,omitempty"`
	Coordinates *engine.Coordinates `json:"coordinates,omitempty"`
	Power       int                 `json:"power,omitempty"`
}

// TurnHistoryEntry records one requested turn of the current game
type TurnHistoryEntry struct {
	TurnNumber int                    `json:"turn_number"`
	Direction  engine.Direction       `json:"direction"`
	Effective  bool                   `json:"effective"`
	ScoreDelta int                    `json:"score_delta"`
	Merges     int                    `json:"merges"`
	Moves      int                    `json:"moves"`
	Spawned    *engine.TileSpawnEvent `json:"spawned,omitempty"`
	TotalScore int                    `json:"total_score"`
	GameOver   bool                   `json:"game_over"`
	Timestamp  time.Time              `json:"timestamp"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []TurnHistoryEntry `json:"turns"`
	TotalTurns  int                `json:"total_turns"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	TotalPages  int                `json:"total_pages"`
	HasNext     bool               `json:"has_next"`
	HasPrevious bool               `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	GameSize     int    `json:"game_size"`
	InitialTiles int    `json:"initial_tiles"`
}

// HighScore is the best finished game for one game size
type HighScore struct {
	GameSize    int       `json:"game_size"`
	Score       int       `json:"score"`
	Turns       int       `json:"turns"`
	MaxTile     int       `json:"max_tile"`
	SessionID   string    `json:"session_id"`
	UpdatedAt   time.Time `json:"updated_at"`
	GamesPlayed int       `json:"games_played"`
}

// GameResult is a finished game handed to a HighScoreStore
type GameResult struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	GameSize   int       `json:"game_size"`
	Score      int       `json:"score"`
	Turns      int       `json:"turns"`
	MaxTile    int       `json:"max_tile"`
	FinishedAt time.Time `json:"finished_at"`
}
