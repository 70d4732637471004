package engine

import (
	"fmt"
	"math/rand"
)

var spawnTable = map[int][]SpawnWeight{
	3: {{Power: 1, Weight: 8}, {Power: 2, Weight: 2}},
	4: {{Power: 1, Weight: 6}, {Power: 2, Weight: 3}, {Power: 3, Weight: 1}},
	5: {{Power: 1, Weight: 4}, {Power: 2, Weight: 4}, {Power: 3, Weight: 2}},
}

// DefaultSpawnWeights returns a copy of the built-in spawn distribution for
// gameSize
func DefaultSpawnWeights(gameSize int) ([]SpawnWeight, error) {
	weights, ok := spawnTable[gameSize]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGameSize, gameSize)
	}
	return append([]SpawnWeight(nil), weights...), nil
}

// SupportedGameSizes lists the sizes with a spawn table, ascending
func SupportedGameSizes() []int {
	sizes := make([]int, 0, len(spawnTable))
	for size := MinGameSize; size <= MaxGameSize; size++ {
		if _, ok := spawnTable[size]; ok {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// WeightedChoice draws an entry with probability proportional to its weight
func WeightedChoice(items []SpawnWeight, rng *rand.Rand) (SpawnWeight, error) {
	total := 0
	for _, item := range items {
		total += item.Weight
	}
	if total <= 0 {
		return SpawnWeight{}, ErrEmptyWeightTable
	}

	draw := rng.Intn(total)
	cumulative := 0
	for _, item := range items {
		cumulative += item.Weight
		if cumulative > draw {
			return item, nil
		}
	}

	// unreachable while total > 0
	return SpawnWeight{}, ErrEmptyWeightTable
}

func validateSpawnWeights(weights []SpawnWeight, gameSize int) error {
	if len(weights) == 0 {
		return ErrEmptyWeightTable
	}
	limit := MaxTilePower(gameSize)
	for i, w := range weights {
		if w.Power < 1 {
			return fmt.Errorf("spawn weight %d: power must be >= 1, got %d", i, w.Power)
		}
		if w.Power > limit {
			return fmt.Errorf("spawn weight %d: %w: power must be <= %d, got %d", i, ErrPowerOutOfRange, limit, w.Power)
		}
		if w.Weight <= 0 {
			return fmt.Errorf("spawn weight %d: weight must be > 0, got %d", i, w.Weight)
		}
	}
	return nil
}

// FreeCells returns the empty cells row by row
func (r *Round) FreeCells() []Coordinates {
	free := make([]Coordinates, 0, r.gameSize*r.gameSize)
	for y := 0; y < r.gameSize; y++ {
		for x := 0; x < r.gameSize; x++ {
			if r.grid[y][x] == nil {
				free = append(free, Coordinates{X: x, Y: y})
			}
		}
	}
	return free
}

// SpawnTile places a tile with a weighted random power on a uniformly chosen
// free cell. It returns nil when the grid is full.
func (r *Round) SpawnTile() *TileSpawnEvent {
	free := r.FreeCells()
	if len(free) == 0 {
		return nil
	}

	cell := free[r.rng.Intn(len(free))]
	choice, err := WeightedChoice(r.weights, r.rng)
	if err != nil {
		// weights are validated at construction
		return nil
	}

	r.lastSpawnedID++
	tile := &Tile{ID: r.lastSpawnedID, Power: choice.Power}
	r.grid[cell.Y][cell.X] = tile
	r.gameOver = r.checkGameOver()

	return &TileSpawnEvent{Tile: *tile, Coordinates: cell}
}

// SpawnShowcase fills the free cells row by row with ascending powers,
// leaving the last free cell empty. It is a debug aid for checking how every
// tile value renders.
func (r *Round) SpawnShowcase() []TileSpawnEvent {
	free := r.FreeCells()
	if len(free) == 0 {
		return nil
	}

	events := make([]TileSpawnEvent, 0, len(free)-1)
	for i, cell := range free[:len(free)-1] {
		r.lastSpawnedID++
		tile := &Tile{ID: r.lastSpawnedID, Power: i + 1}
		r.grid[cell.Y][cell.X] = tile
		events = append(events, TileSpawnEvent{Tile: *tile, Coordinates: cell})
	}
	r.gameOver = r.checkGameOver()

	return events
}
