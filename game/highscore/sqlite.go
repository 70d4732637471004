package highscore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// SQLiteStore implements service.HighScoreStore on SQLite
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path. Call Migrate before use.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes; running it twice is harmless
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS best_scores (
			game_size INTEGER PRIMARY KEY,
			score INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			max_tile INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			game_size INTEGER NOT NULL,
			score INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			max_tile INTEGER NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_size_score ON game_results(game_size, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_results_finished ON game_results(finished_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Best(ctx context.Context, gameSize int) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM best_scores WHERE game_size = ?`, gameSize).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read best score: %w", err)
	}
	return score, nil
}

// Record inserts the result and raises the best score in one transaction
func (s *SQLiteStore) Record(ctx context.Context, result service.GameResult) (bool, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_results (id, session_id, game_size, score, turns, max_tile, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.SessionID, result.GameSize, result.Score, result.Turns, result.MaxTile, result.FinishedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert game result: %w", err)
	}

	var prev int
	err = tx.QueryRowContext(ctx, `SELECT score FROM best_scores WHERE game_size = ?`, result.GameSize).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to read best score: %w", err)
	}

	newBest := result.Score > prev
	if newBest {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO best_scores (game_size, score, turns, max_tile, session_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(game_size) DO UPDATE SET
				score = excluded.score,
				turns = excluded.turns,
				max_tile = excluded.max_tile,
				session_id = excluded.session_id,
				updated_at = excluded.updated_at`,
			result.GameSize, result.Score, result.Turns, result.MaxTile, result.SessionID, result.FinishedAt.UTC())
		if err != nil {
			return false, fmt.Errorf("failed to update best score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return newBest, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]service.HighScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_size, score, turns, max_tile, session_id, updated_at
		FROM best_scores ORDER BY game_size`)
	if err != nil {
		return nil, fmt.Errorf("failed to query best scores: %w", err)
	}
	defer rows.Close()

	scores := []service.HighScore{}
	for rows.Next() {
		var hs service.HighScore
		if err := rows.Scan(&hs.GameSize, &hs.Score, &hs.Turns, &hs.MaxTile, &hs.SessionID, &hs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan best score: %w", err)
		}
		scores = append(scores, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range scores {
		n, err := s.CountResults(ctx, scores[i].GameSize)
		if err != nil {
			return nil, err
		}
		scores[i].GamesPlayed = n
	}
	return scores, nil
}

// CountResults returns how many finished games are stored for gameSize
func (s *SQLiteStore) CountResults(ctx context.Context, gameSize int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_results WHERE game_size = ?`, gameSize).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return n, nil
}
