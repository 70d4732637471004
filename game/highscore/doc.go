// Package highscore stores finished games and the best score per game size.
//
// Three stores implement service.HighScoreStore: MemoryStore for tests and
// throwaway servers, FileStore for a single JSON document on disk and
// SQLiteStore backed by modernc.org/sqlite. Open picks one by name.
//
// A result is a new best only when its score is strictly greater than the
// stored best for its size.
package highscore
