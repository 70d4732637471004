package highscore

import (
	"context"
	"sync"

	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// MemoryStore keeps scores for the lifetime of the process
type MemoryStore struct {
	mu    sync.RWMutex
	best  map[int]service.HighScore
	games map[int]int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		best:  make(map[int]service.HighScore),
		games: make(map[int]int),
	}
}

func (m *MemoryStore) Best(ctx context.Context, gameSize int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.best[gameSize].Score, nil
}

func (m *MemoryStore) Record(ctx context.Context, result service.GameResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.games[result.GameSize]++
	if result.Score <= m.best[result.GameSize].Score {
		return false, nil
	}
	m.best[result.GameSize] = highScoreFrom(result)
	return true, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]service.HighScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make([]service.HighScore, 0, len(m.best))
	for size, hs := range m.best {
		hs.GamesPlayed = m.games[size]
		scores = append(scores, hs)
	}
	sortBySize(scores)
	return scores, nil
}

func (m *MemoryStore) Close() error { return nil }
