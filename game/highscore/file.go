package highscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// MaxFileResults caps how many finished games FileStore keeps
const MaxFileResults = 1000

// fileDocument is the on-disk layout of a FileStore. Games counts every
// recorded game per size; Results keeps only the latest MaxFileResults.
type fileDocument struct {
	Best    map[string]service.HighScore `json:"best"`
	Games   map[string]int               `json:"games"`
	Results []service.GameResult         `json:"results"`
}

// FileStore keeps scores in one JSON file, rewritten atomically on each record
type FileStore struct {
	path string
	mu   sync.RWMutex
	doc  fileDocument
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens path, starting empty when the file does not exist
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		doc: fileDocument{
			Best:  make(map[string]service.HighScore),
			Games: make(map[string]int),
		},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read score file: %w", err)
	}

	if err := json.Unmarshal(data, &fs.doc); err != nil {
		return nil, fmt.Errorf("failed to parse score file %s: %w", path, err)
	}
	if fs.doc.Best == nil {
		fs.doc.Best = make(map[string]service.HighScore)
	}
	if fs.doc.Games == nil {
		fs.doc.Games = make(map[string]int)
	}
	return fs, nil
}

func (fs *FileStore) Best(ctx context.Context, gameSize int) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.doc.Best[strconv.Itoa(gameSize)].Score, nil
}

func (fs *FileStore) Record(ctx context.Context, result service.GameResult) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := strconv.Itoa(result.GameSize)
	prev, hadPrev := fs.doc.Best[key]
	results := fs.doc.Results

	fs.doc.Games[key]++
	fs.doc.Results = append(fs.doc.Results, result)
	if len(fs.doc.Results) > MaxFileResults {
		fs.doc.Results = fs.doc.Results[len(fs.doc.Results)-MaxFileResults:]
	}

	newBest := result.Score > prev.Score
	if newBest {
		fs.doc.Best[key] = highScoreFrom(result)
	}

	if err := fs.write(); err != nil {
		// keep memory in step with disk
		fs.doc.Results = results
		fs.doc.Games[key]--
		if hadPrev {
			fs.doc.Best[key] = prev
		} else {
			delete(fs.doc.Best, key)
		}
		return false, err
	}
	return newBest, nil
}

func (fs *FileStore) List(ctx context.Context) ([]service.HighScore, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	scores := make([]service.HighScore, 0, len(fs.doc.Best))
	for key, hs := range fs.doc.Best {
		hs.GamesPlayed = fs.doc.Games[key]
		scores = append(scores, hs)
	}
	sortBySize(scores)
	return scores, nil
}

func (fs *FileStore) Close() error { return nil }

// write replaces the file through a temp file in the same directory.
// Callers hold mu.
func (fs *FileStore) write() error {
	data, err := json.MarshalIndent(&fs.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".highscores-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp score file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace score file: %w", err)
	}
	return nil
}
