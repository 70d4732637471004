// Package engine provides the turn-resolution core of the merge puzzle.
//
// The engine package implements the game mechanics including:
//   - Line collapse: sliding tiles toward an edge and merging equal pairs
//   - Tile spawning with size-dependent weighted powers
//   - Score accumulation and game-over detection
//   - Game variant configuration loading and validation
//
// Core Types:
//
// Round owns the grid of one game and is the only thing that mutates it.
// MakeTurn returns a TurnResult describing the observable deltas (moves,
// mergers, spawn, score, turn count, game over) so a presentation layer can
// replay them. GameState is a read-only snapshot of the grid.
//
// Usage:
//
//	round, err := engine.NewRound(4)
//	if err != nil {
//		log.Fatal(err)
//	}
//	round.SpawnTile()
//
//	result := round.MakeTurn(engine.Left)
//	for _, m := range result.Mergers {
//		fmt.Println(m.AbsorbedID, "->", m.IntoID)
//	}
//
// Game Rules:
//
// Tiles carry a power; the displayed value is 2^power. A turn slides every
// tile toward one edge. Two tiles of equal power that meet merge into one
// tile of power+1 and the score grows by the new value. A tile takes part in
// at most one merge per turn. Every turn that changes the grid spawns one new
// tile. The game is over when the grid is full and no two neighbours share a
// power.
//
// Concurrency:
//
// A Round is not safe for concurrent use. Callers serialize turns.
package engine
