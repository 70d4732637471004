package engine

import (
	"fmt"
	"strings"
)

// ParseDirection converts user input into a Direction. It accepts the
// direction names in any case, the keyboard names ArrowUp..ArrowLeft and the
// w/a/s/d keys.
func ParseDirection(input string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "up", "arrowup", "w":
		return Up, nil
	case "right", "arrowright", "d":
		return Right, nil
	case "down", "arrowdown", "s":
		return Down, nil
	case "left", "arrowleft", "a":
		return Left, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, input)
	}
}

// project maps position idx of a line, counted from the edge tiles move
// toward, back to grid coordinates
func project(direction Direction, size, line, idx int) Coordinates {
	switch direction {
	case Right:
		return Coordinates{X: size - 1 - idx, Y: line}
	case Up:
		return Coordinates{X: line, Y: idx}
	case Down:
		return Coordinates{X: line, Y: size - 1 - idx}
	default:
		return Coordinates{X: idx, Y: line}
	}
}

// lineResult holds the events produced by collapsing one line
type lineResult struct {
	moves   []TileMoveEvent
	mergers []TileMergerEvent
	score   int
}

// collapseLine slides and merges the tiles of one line toward index 0. The
// slice is modified in place; at points to grid coordinates for event output.
func collapseLine(line []*Tile, at func(idx int) Coordinates) lineResult {
	var res lineResult
	lastOccupied := -1
	merged := make(map[int]bool)

	for i, cur := range line {
		if cur == nil {
			continue
		}

		if lastOccupied >= 0 {
			target := line[lastOccupied]
			if target.Power == cur.Power && !merged[target.ID] {
				target.Power++
				line[i] = nil
				merged[target.ID] = true

				res.moves = append(res.moves, TileMoveEvent{TileID: cur.ID, To: at(lastOccupied)})
				res.mergers = append(res.mergers, TileMergerEvent{
					AbsorbedID: cur.ID,
					IntoID:     target.ID,
					NewPower:   target.Power,
				})
				res.score += 1 << target.Power
				continue
			}
		}

		if lastOccupied+1 < i {
			lastOccupied++
			line[lastOccupied] = cur
			line[i] = nil
			res.moves = append(res.moves, TileMoveEvent{TileID: cur.ID, To: at(lastOccupied)})
			continue
		}

		lastOccupied = i
	}

	return res
}

// MakeTurn slides every line toward direction. An effective turn spawns a
// tile, counts the turn and re-evaluates game over; a turn that changes
// nothing, or names an unknown direction, leaves the round untouched.
func (r *Round) MakeTurn(direction Direction) TurnResult {
	result := TurnResult{
		Direction: direction,
		Moves:     []TileMoveEvent{},
		Mergers:   []TileMergerEvent{},
	}
	if !direction.Valid() {
		result.GameOver = r.gameOver
		result.TotalScore = r.totalScore
		result.TurnsPlayed = r.turnsPlayed
		return result
	}

	n := r.gameSize
	line := make([]*Tile, n)
	for l := 0; l < n; l++ {
		at := func(idx int) Coordinates {
			return project(direction, n, l, idx)
		}
		for idx := 0; idx < n; idx++ {
			c := at(idx)
			line[idx] = r.grid[c.Y][c.X]
		}

		lr := collapseLine(line, at)

		for idx := 0; idx < n; idx++ {
			c := at(idx)
			r.grid[c.Y][c.X] = line[idx]
		}

		result.Moves = append(result.Moves, lr.moves...)
		result.Mergers = append(result.Mergers, lr.mergers...)
		result.ScoreDelta += lr.score
	}

	result.Effective = len(result.Moves) > 0 || len(result.Mergers) > 0
	if result.Effective {
		r.totalScore += result.ScoreDelta
		r.turnsPlayed++
		result.Spawn = r.SpawnTile()
		r.gameOver = r.checkGameOver()
	}

	result.GameOver = r.gameOver
	result.TotalScore = r.totalScore
	result.TurnsPlayed = r.turnsPlayed
	return result
}

// CanMove reports whether a turn toward direction would change the grid
func (r *Round) CanMove(direction Direction) bool {
	if !direction.Valid() {
		return false
	}
	n := r.gameSize
	for l := 0; l < n; l++ {
		sawEmpty := false
		prevPower := 0
		for idx := 0; idx < n; idx++ {
			c := project(direction, n, l, idx)
			t := r.grid[c.Y][c.X]
			if t == nil {
				sawEmpty = true
				continue
			}
			if sawEmpty || t.Power == prevPower {
				return true
			}
			prevPower = t.Power
		}
	}
	return false
}

// PossibleMoves returns the directions that would change the grid
func (r *Round) PossibleMoves() []Direction {
	moves := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		if r.CanMove(d) {
			moves = append(moves, d)
		}
	}
	return moves
}

// checkGameOver returns true when the grid is full and no two orthogonal
// neighbours share a power
func (r *Round) checkGameOver() bool {
	n := r.gameSize
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			t := r.grid[y][x]
			if t == nil {
				return false
			}
			if x+1 < n && r.grid[y][x+1] != nil && r.grid[y][x+1].Power == t.Power {
				return false
			}
			if y+1 < n && r.grid[y+1][x] != nil && r.grid[y+1][x].Power == t.Power {
				return false
			}
		}
	}
	return true
}
