package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager keeps game sessions in memory, keyed by lower-case id
type Manager struct {
	sessions map[string]*service.Session
	seeds    *mrand.Rand
	now      func() time.Time
	mu       sync.RWMutex
}

var _ service.SessionManager = (*Manager)(nil)

// Option configures a Manager
type Option func(*Manager)

// WithSeed makes every round the manager creates reproducible from seed
func WithSeed(seed int64) Option {
	return func(m *Manager) {
		m.seeds = mrand.New(mrand.NewSource(seed))
	}
}

// WithClock replaces time.Now for session timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.seeds == nil {
		m.seeds = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// Create creates a new session with the given ID and configuration. An empty
// id gets a generated one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("failed to create round: config is nil")
	}
	if strings.TrimSpace(id) != id {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	cfg := *config
	cfg.ApplyDefaults()

	round, err := m.newRound(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	now := m.now()
	session := &service.Session{
		ID:             id,
		Round:          round,
		Config:         &cfg,
		CreatedAt:      now,
		LastAccessedAt: now,
		GamesPlayed:    1,
	}
	m.sessions[strings.ToLower(id)] = session

	return session, nil
}

// newRound builds a round with its own random source drawn from the manager
// seed. Callers hold mu.
func (m *Manager) newRound(config *engine.GameConfig) (*engine.Round, error) {
	rng := mrand.New(mrand.NewSource(m.seeds.Int63()))
	return engine.NewRoundFromConfig(config, engine.WithRand(rng))
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// Replace discards the session's round and starts a fresh one from the same
// config. Turn history and the recorded-score flag are reset.
func (m *Manager) Replace(id string) (*service.Session, error) {
	m.mu.Lock()
	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	round, err := m.newRound(session.Config)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	session.Lock()
	session.Round = round
	session.History = nil
	session.ScoreRecorded = false
	session.GamesPlayed++
	session.Unlock()

	return session, nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = m.now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", len(m.sessions)).Msg("expired sessions cleaned up")
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns an unused random 4-character id. Callers hold mu.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}
