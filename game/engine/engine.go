package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Turn operations
	MakeTurn(direction Direction) TurnResult
	SpawnTile() *TileSpawnEvent
	CanMove(direction Direction) bool
	PossibleMoves() []Direction

	// Game state
	State() *GameState
	IsGameOver() bool
	TotalScore() int
	TurnsPlayed() int
	GameSize() int
	MaxPower() int
}

// Round owns the grid of a single game and implements Engine
type Round struct {
	gameSize      int
	weights       []SpawnWeight
	grid          [][]*Tile // grid[y][x]
	lastSpawnedID int
	turnsPlayed   int
	totalScore    int
	gameOver      bool
	rng           *rand.Rand
}

var _ Engine = (*Round)(nil)

// Option customizes a Round at construction
type Option func(*Round)

// WithRand sets the random source used for spawning
func WithRand(rng *rand.Rand) Option {
	return func(r *Round) {
		r.rng = rng
	}
}

// WithSpawnWeights replaces the built-in spawn distribution for the game size
func WithSpawnWeights(weights []SpawnWeight) Option {
	return func(r *Round) {
		r.weights = append([]SpawnWeight(nil), weights...)
	}
}

// NewRound creates an empty round. The game size must have a spawn table entry.
func NewRound(gameSize int, opts ...Option) (*Round, error) {
	weights, err := DefaultSpawnWeights(gameSize)
	if err != nil {
		return nil, err
	}

	r := &Round{
		gameSize: gameSize,
		weights:  weights,
		grid:     newGrid(gameSize),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if err := validateSpawnWeights(r.weights, gameSize); err != nil {
		return nil, err
	}

	return r, nil
}

// NewRoundFromConfig validates the config, creates a round and spawns the
// initial tiles
func NewRoundFromConfig(config *GameConfig, opts ...Option) (*Round, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	if len(config.SpawnWeights) > 0 {
		opts = append([]Option{WithSpawnWeights(config.SpawnWeights)}, opts...)
	}

	r, err := NewRound(config.GameSize, opts...)
	if err != nil {
		return nil, err
	}

	initial := config.InitialTiles
	if initial == 0 {
		initial = 1
	}
	for i := 0; i < initial; i++ {
		r.SpawnTile()
	}

	return r, nil
}

// MaxTilePower is the highest power a tile may hold on a gameSize grid. It
// sits well above anything reachable by play and keeps tile values inside int.
func MaxTilePower(gameSize int) int {
	return 2*gameSize*gameSize + 3
}

// NewRoundFromPowers builds a round from a matrix of powers where 0 marks an
// empty cell. Tile ids are assigned row by row starting at 1.
func NewRoundFromPowers(gameSize int, powers [][]int, opts ...Option) (*Round, error) {
	r, err := NewRound(gameSize, opts...)
	if err != nil {
		return nil, err
	}

	if len(powers) != gameSize {
		return nil, fmt.Errorf("board must have %d rows, got %d", gameSize, len(powers))
	}
	for y, row := range powers {
		if len(row) != gameSize {
			return nil, fmt.Errorf("board row %d must have %d cells, got %d", y, gameSize, len(row))
		}
		for x, power := range row {
			if power < 0 || power > MaxTilePower(gameSize) {
				return nil, fmt.Errorf("%w: power %d at (%d,%d), want 0..%d",
					ErrPowerOutOfRange, power, x, y, MaxTilePower(gameSize))
			}
			if power == 0 {
				continue
			}
			r.lastSpawnedID++
			r.grid[y][x] = &Tile{ID: r.lastSpawnedID, Power: power}
		}
	}

	r.gameOver = r.checkGameOver()
	return r, nil
}

// GameSize returns the side length of the grid
func (r *Round) GameSize() int {
	return r.gameSize
}

// TotalScore returns the accumulated score
func (r *Round) TotalScore() int {
	return r.totalScore
}

// TurnsPlayed returns the number of effective turns
func (r *Round) TurnsPlayed() int {
	return r.turnsPlayed
}

// IsGameOver returns whether the game is over
func (r *Round) IsGameOver() bool {
	return r.gameOver
}

// SpawnWeights returns a copy of the spawn distribution in use
func (r *Round) SpawnWeights() []SpawnWeight {
	return append([]SpawnWeight(nil), r.weights...)
}

// MaxPower returns the highest power on the grid, 0 for an empty grid
func (r *Round) MaxPower() int {
	max := 0
	r.eachTile(func(_ Coordinates, t *Tile) {
		if t.Power > max {
			max = t.Power
		}
	})
	return max
}

// TileCount returns the number of tiles on the grid
func (r *Round) TileCount() int {
	count := 0
	r.eachTile(func(Coordinates, *Tile) {
		count++
	})
	return count
}

// State returns a snapshot of the round. The snapshot shares nothing with
// the grid.
func (r *Round) State() *GameState {
	board := make([][]int, r.gameSize)
	tiles := make([]TileState, 0, r.gameSize*r.gameSize)
	free := 0

	for y := 0; y < r.gameSize; y++ {
		board[y] = make([]int, r.gameSize)
		for x := 0; x < r.gameSize; x++ {
			t := r.grid[y][x]
			if t == nil {
				free++
				continue
			}
			board[y][x] = t.Power
			tiles = append(tiles, TileState{
				ID:          t.ID,
				Power:       t.Power,
				Value:       t.Value(),
				Coordinates: Coordinates{X: x, Y: y},
			})
		}
	}

	maxPower := r.MaxPower()
	maxTile := 0
	if maxPower > 0 {
		maxTile = 1 << maxPower
	}

	return &GameState{
		GameSize:      r.gameSize,
		Tiles:         tiles,
		Board:         board,
		TotalScore:    r.totalScore,
		TurnsPlayed:   r.turnsPlayed,
		GameOver:      r.gameOver,
		MaxPower:      maxPower,
		MaxTile:       maxTile,
		FreeCells:     free,
		PossibleMoves: r.PossibleMoves(),
	}
}

// CheckInvariants verifies the grid bookkeeping
func (r *Round) CheckInvariants() error {
	seen := make(map[int]Coordinates)
	var violation error

	r.eachTile(func(c Coordinates, t *Tile) {
		if violation != nil {
			return
		}
		if prev, ok := seen[t.ID]; ok {
			violation = fmt.Errorf("%w: tile %d at (%d,%d) and (%d,%d)", ErrInvariantViolation, t.ID, prev.X, prev.Y, c.X, c.Y)
			return
		}
		seen[t.ID] = c
		if t.Power < 1 {
			violation = fmt.Errorf("%w: tile %d has power %d", ErrInvariantViolation, t.ID, t.Power)
			return
		}
		if t.ID > r.lastSpawnedID {
			violation = fmt.Errorf("%w: tile %d is newer than last spawned id %d", ErrInvariantViolation, t.ID, r.lastSpawnedID)
		}
	})

	return violation
}

// eachTile visits the occupied cells row by row
func (r *Round) eachTile(fn func(Coordinates, *Tile)) {
	for y := 0; y < r.gameSize; y++ {
		for x := 0; x < r.gameSize; x++ {
			if t := r.grid[y][x]; t != nil {
				fn(Coordinates{X: x, Y: y}, t)
			}
		}
	}
}

func newGrid(size int) [][]*Tile {
	grid := make([][]*Tile, size)
	for i := range grid {
		grid[i] = make([]*Tile, size)
	}
	return grid
}
