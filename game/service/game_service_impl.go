package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   HighScoreStore
	now      func() time.Time
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithHighScoreStore records finished games in store
func WithHighScoreStore(store HighScoreStore) Option {
	return func(s *gameServiceImpl) {
		s.scores = store
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		s.now = now
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// getSession looks up a session and marks it accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().Str("session", sess.ID).Str("config", configID).Int("game_size", config.GameSize).Msg("session created")

	sess.Lock()
	defer sess.Unlock()
	info := s.sessionInfo(sess)
	info.ConfigName = configID
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Move executes a single turn for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	turn := s.applyTurn(sess, dir)
	result := &MoveResult{
		Success: turn.Effective,
		Turn:    turn,
		Events:  s.turnEvents(turn),
	}

	if turn.GameOver {
		result.NewHighScore, result.BestScore = s.recordGameOver(ctx, sess)
		if turn.Effective {
			result.Events = append(result.Events, s.gameOverEvents(sess, result.NewHighScore)...)
		}
	}

	result.GameState = s.gameState(sess)
	result.Message = result.GameState.Message
	if result.NewHighScore {
		result.Message = fmt.Sprintf(messagesFor(sess.Config).NewHighScore, turn.TotalScore)
	}

	return result, nil
}

// BulkMove executes multiple turns in sequence
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
		StartScore:     sess.Round.TotalScore(),
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Round.IsGameOver() {
			result.StoppedReason = "game is over"
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StopReasonCode = StopInvalidDirection
			result.StoppedOnMove = i + 1
			break
		}

		turn := s.applyTurn(sess, dir)
		result.MovesExecuted++
		if turn.Effective {
			result.EffectiveMoves++
		}
		result.Turns = append(result.Turns, turn)
		result.Events = append(result.Events, s.turnEvents(turn)...)

		if turn.GameOver {
			result.NewHighScore, result.BestScore = s.recordGameOver(ctx, sess)
			if turn.Effective {
				result.Events = append(result.Events, s.gameOverEvents(sess, result.NewHighScore)...)
			}
		}
	}

	result.GameState = s.gameState(sess)
	result.EndScore = sess.Round.TotalScore()
	result.ScoreDelta = result.EndScore - result.StartScore
	result.GameOver = sess.Round.IsGameOver()
	result.Message = result.GameState.Message
	result.PossibleMoves = result.GameState.PossibleMoves

	// Ended by the last executed turn
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = StopGameOver
	}
	if result.GameOver && result.BestScore == 0 && s.scores != nil {
		result.BestScore = s.bestScore(ctx, sess)
	}

	return result, nil
}

// NewGame replaces the session round with a fresh one of the same config
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if _, err := s.getSession(sessionID); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Replace(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to start new game: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	log.Info().Str("session", sess.ID).Int("games_played", sess.GamesPlayed).Msg("new game")
	return s.gameState(sess), nil
}

// Showcase spawns ascending powers into the session's free cells
func (s *gameServiceImpl) Showcase(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	spawned := sess.Round.SpawnShowcase()
	log.Debug().Str("session", sess.ID).Int("tiles", len(spawned)).Msg("showcase")
	return s.gameState(sess), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.gameState(sess), nil
}

// GetTurnHistory returns paginated turn history of the current game
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	history := append([]TurnHistoryEntry(nil), sess.History...)
	sess.Unlock()

	return paginateHistory(history, opts), nil
}

func paginateHistory(history []TurnHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []TurnHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i])
			}
		} else {
			turns = append(turns, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// GetHighScores returns the best score per game size
func (s *gameServiceImpl) GetHighScores(ctx context.Context) ([]HighScore, error) {
	if s.scores == nil {
		return []HighScore{}, nil
	}
	return s.scores.List(ctx)
}

// applyTurn runs one turn on the session round and appends it to the history.
// Callers hold the session lock.
func (s *gameServiceImpl) applyTurn(sess *Session, dir engine.Direction) engine.TurnResult {
	turn := sess.Round.MakeTurn(dir)

	sess.History = append(sess.History, TurnHistoryEntry{
		TurnNumber: len(sess.History) + 1,
		Direction:  dir,
		Effective:  turn.Effective,
		ScoreDelta: turn.ScoreDelta,
		Merges:     len(turn.Mergers),
		Moves:      len(turn.Moves),
		Spawned:    turn.Spawn,
		TotalScore: turn.TotalScore,
		GameOver:   turn.GameOver,
		Timestamp:  s.now(),
	})

	if err := sess.Round.CheckInvariants(); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Str("direction", string(dir)).Msg("grid invariant violated")
	}

	log.Debug().
		Str("session", sess.ID).
		Str("direction", string(dir)).
		Bool("effective", turn.Effective).
		Int("score", turn.TotalScore).
		Int("turn", turn.TurnsPlayed).
		Msg("turn applied")

	return turn
}

// recordGameOver stores the finished game once and returns whether it set a
// new best and the best score after recording. Callers hold the session lock.
func (s *gameServiceImpl) recordGameOver(ctx context.Context, sess *Session) (bool, int) {
	if s.scores == nil {
		return false, 0
	}
	if sess.ScoreRecorded {
		return false, s.bestScore(ctx, sess)
	}
	sess.ScoreRecorded = true

	score := sess.Round.TotalScore()
	size := sess.Round.GameSize()
	best := s.bestScore(ctx, sess)

	maxTile := 0
	if p := sess.Round.MaxPower(); p > 0 {
		maxTile = 1 << p
	}

	newBest, err := s.scores.Record(ctx, GameResult{
		ID:         uuid.NewString(),
		SessionID:  sess.ID,
		GameSize:   size,
		Score:      score,
		Turns:      sess.Round.TurnsPlayed(),
		MaxTile:    maxTile,
		FinishedAt: s.now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("record game result")
		return false, best
	}

	log.Info().Str("session", sess.ID).Int("score", score).Int("best", best).Bool("new_best", newBest).Msg("game over")

	if newBest {
		best = score
	}
	return newBest, best
}

// bestScore reads the stored best for the session's game size, 0 on error
func (s *gameServiceImpl) bestScore(ctx context.Context, sess *Session) int {
	size := sess.Round.GameSize()
	best, err := s.scores.Best(ctx, size)
	if err != nil {
		log.Warn().Err(err).Int("game_size", size).Msg("read best score")
	}
	return best
}

// turnEvents converts a turn into transport events
func (s *gameServiceImpl) turnEvents(turn engine.TurnResult) []GameEvent {
	now := s.now()
	if !turn.Effective {
		return []GameEvent{{
			Type:      EventNoOp,
			Message:   fmt.Sprintf("Nothing moved %s", turn.Direction),
			Timestamp: now,
		}}
	}

	events := make([]GameEvent, 0, len(turn.Moves)+len(turn.Mergers)+1)
	for _, m := range turn.Moves {
		to := m.To
		events = append(events, GameEvent{
			Type:        EventMove,
			Message:     fmt.Sprintf("Tile %d moved to (%d,%d)", m.TileID, to.X, to.Y),
			Timestamp:   now,
			TileID:      m.TileID,
			Coordinates: &to,
		})
	}
	for _, m := range turn.Mergers {
		events = append(events, GameEvent{
			Type:      EventMerge,
			Message:   fmt.Sprintf("Tile %d merged into tile %d making %d", m.AbsorbedID, m.IntoID, 1<<m.NewPower),
			Timestamp: now,
			TileID:    m.IntoID,
			Power:     m.NewPower,
		})
	}
	if turn.Spawn != nil {
		at := turn.Spawn.Coordinates
		events = append(events, GameEvent{
			Type:        EventSpawn,
			Message:     fmt.Sprintf("Tile %d spawned with value %d at (%d,%d)", turn.Spawn.Tile.ID, turn.Spawn.Tile.Value(), at.X, at.Y),
			Timestamp:   now,
			TileID:      turn.Spawn.Tile.ID,
			Coordinates: &at,
			Power:       turn.Spawn.Tile.Power,
		})
	}
	return events
}

func (s *gameServiceImpl) gameOverEvents(sess *Session, newBest bool) []GameEvent {
	score := sess.Round.TotalScore()
	messages := messagesFor(sess.Config)
	events := []GameEvent{{
		Type:      EventGameOver,
		Message:   fmt.Sprintf(messages.GameOver, score),
		Timestamp: s.now(),
	}}
	if newBest {
		events = append(events, GameEvent{
			Type:      EventHighScore,
			Message:   fmt.Sprintf(messages.NewHighScore, score),
			Timestamp: s.now(),
		})
	}
	return events
}

// gameState snapshots the round and adds the player-facing message
func (s *gameServiceImpl) gameState(sess *Session) *engine.GameState {
	state := sess.Round.State()
	state.ConfigName = sess.Config.Name
	messages := messagesFor(sess.Config)
	switch {
	case state.GameOver:
		state.Message = fmt.Sprintf(messages.GameOver, state.TotalScore)
	case state.TurnsPlayed == 0:
		state.Message = messages.Welcome
	default:
		state.Message = fmt.Sprintf("Score: %d", state.TotalScore)
	}
	return state
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GamesPlayed:    sess.GamesPlayed,
		GameState:      s.gameState(sess),
		GameConfig:     sess.Config,
	}
}

// messagesFor returns the config messages with defaults for empty entries
func messagesFor(config *engine.GameConfig) engine.Messages {
	c := *config
	c.ApplyDefaults()
	return c.Messages
}

// IsNotFound reports whether err means a missing session or config
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSessionNotFound) || strings.Contains(err.Error(), "not found")
}
