package highscore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// Store kinds accepted by Open
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

const (
	fileName   = "highscores.json"
	sqliteName = "highscores.db"
)

// Store is a HighScoreStore that holds resources
type Store interface {
	service.HighScoreStore
	Close() error
}

// Open creates the store named by kind. File and SQLite stores live in dir,
// which is created when missing.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindFile, KindSQLite:
	default:
		return nil, fmt.Errorf("unknown score store %q (want memory, file or sqlite)", kind)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create score directory: %w", err)
	}

	if kind == KindFile {
		return NewFileStore(filepath.Join(dir, fileName))
	}

	s, err := NewSQLiteStore(filepath.Join(dir, sqliteName))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func highScoreFrom(result service.GameResult) service.HighScore {
	return service.HighScore{
		GameSize:  result.GameSize,
		Score:     result.Score,
		Turns:     result.Turns,
		MaxTile:   result.MaxTile,
		SessionID: result.SessionID,
		UpdatedAt: result.FinishedAt,
	}
}

func sortBySize(scores []service.HighScore) {
	sort.Slice(scores, func(i, j int) bool { return scores[i].GameSize < scores[j].GameSize })
}
