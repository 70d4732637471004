package engine

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func newTestRound(t *testing.T, powers [][]int) *Round {
	t.Helper()
	r, err := NewRoundFromPowers(len(powers), powers, WithRand(seededRand()))
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	return r
}

func TestNewRound(t *testing.T) {
	for _, size := range []int{3, 4, 5} {
		r, err := NewRound(size, WithRand(seededRand()))
		if err != nil {
			t.Fatalf("NewRound(%d) failed: %v", size, err)
		}
		if r.GameSize() != size {
			t.Errorf("Expected game size %d, got %d", size, r.GameSize())
		}
		if r.TotalScore() != 0 || r.TurnsPlayed() != 0 {
			t.Errorf("Expected fresh counters, got score=%d turns=%d", r.TotalScore(), r.TurnsPlayed())
		}
		if r.IsGameOver() {
			t.Error("Expected empty round not to be over")
		}
		if len(r.FreeCells()) != size*size {
			t.Errorf("Expected %d free cells, got %d", size*size, len(r.FreeCells()))
		}
	}
}

func TestNewRound_UnsupportedGameSize(t *testing.T) {
	for _, size := range []int{0, 1, 2, 6, 8} {
		_, err := NewRound(size)
		if !errors.Is(err, ErrUnsupportedGameSize) {
			t.Errorf("NewRound(%d): expected ErrUnsupportedGameSize, got %v", size, err)
		}
	}
}

func TestNewRound_EmptyWeights(t *testing.T) {
	_, err := NewRound(4, WithSpawnWeights(nil))
	if !errors.Is(err, ErrEmptyWeightTable) {
		t.Errorf("Expected ErrEmptyWeightTable, got %v", err)
	}
}

func TestNewRoundFromConfig(t *testing.T) {
	config := createValidConfig()
	config.InitialTiles = 3

	r, err := NewRoundFromConfig(config, WithRand(seededRand()))
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	if r.TileCount() != 3 {
		t.Errorf("Expected 3 initial tiles, got %d", r.TileCount())
	}
	if r.TurnsPlayed() != 0 {
		t.Errorf("Initial spawns must not count as turns, got %d", r.TurnsPlayed())
	}

	config.InitialTiles = 0
	r, err = NewRoundFromConfig(config, WithRand(seededRand()))
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	if r.TileCount() != 1 {
		t.Errorf("Expected a single tile by default, got %d", r.TileCount())
	}
}

func TestNewRoundFromConfig_CustomWeights(t *testing.T) {
	config := createValidConfig()
	config.SpawnWeights = []SpawnWeight{{Power: 3, Weight: 1}}
	config.InitialTiles = 5

	r, err := NewRoundFromConfig(config, WithRand(seededRand()))
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	for _, tile := range r.State().Tiles {
		if tile.Power != 3 {
			t.Errorf("Expected every spawn to have power 3, got %d", tile.Power)
		}
	}
}

func TestNewRoundFromConfig_Invalid(t *testing.T) {
	config := createValidConfig()
	config.GameSize = 10
	if _, err := NewRoundFromConfig(config); !errors.Is(err, ErrUnsupportedGameSize) {
		t.Errorf("Expected ErrUnsupportedGameSize, got %v", err)
	}
}

func TestNewRoundFromPowers_Errors(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		powers [][]int
	}{
		{"too few rows", 3, [][]int{{0, 0, 0}, {0, 0, 0}}},
		{"short row", 3, [][]int{{0, 0, 0}, {0, 0}, {0, 0, 0}}},
		{"negative power", 3, [][]int{{0, 0, 0}, {0, -1, 0}, {0, 0, 0}}},
		{"power past the cap", 3, [][]int{{0, 0, 0}, {0, 22, 0}, {0, 0, 0}}},
		{"power that overflows", 5, [][]int{{63, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRoundFromPowers(tt.size, tt.powers); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestNewRoundFromPowers_PowerCap(t *testing.T) {
	for _, size := range SupportedGameSizes() {
		limit := MaxTilePower(size)
		if 1<<limit <= 0 {
			t.Fatalf("Tile value for power %d overflows", limit)
		}

		powers := make([][]int, size)
		for y := range powers {
			powers[y] = make([]int, size)
		}
		powers[0][0] = limit
		r, err := NewRoundFromPowers(size, powers, WithRand(seededRand()))
		if err != nil {
			t.Fatalf("size %d: power %d should be accepted: %v", size, limit, err)
		}
		if r.State().MaxTile != 1<<limit {
			t.Errorf("size %d: expected max tile %d, got %d", size, 1<<limit, r.State().MaxTile)
		}

		powers[0][0] = limit + 1
		if _, err := NewRoundFromPowers(size, powers); !errors.Is(err, ErrPowerOutOfRange) {
			t.Errorf("size %d: expected ErrPowerOutOfRange, got %v", size, err)
		}
	}
}

func TestNewRoundFromPowers_AssignsIDsRowMajor(t *testing.T) {
	r := newTestRound(t, [][]int{
		{1, 0, 2},
		{0, 3, 0},
		{0, 0, 4},
	})

	want := map[int]Coordinates{1: {0, 0}, 2: {2, 0}, 3: {1, 1}, 4: {2, 2}}
	for _, tile := range r.State().Tiles {
		if want[tile.ID] != tile.Coordinates {
			t.Errorf("Tile %d at %v, expected %v", tile.ID, tile.Coordinates, want[tile.ID])
		}
		if tile.Power != tile.ID {
			t.Errorf("Tile %d has power %d", tile.ID, tile.Power)
		}
	}
}

func TestState_Snapshot(t *testing.T) {
	r := newTestRound(t, [][]int{
		{1, 0, 0},
		{0, 3, 0},
		{0, 0, 0},
	})

	state := r.State()
	if state.MaxPower != 3 || state.MaxTile != 8 {
		t.Errorf("Expected max power 3 / tile 8, got %d / %d", state.MaxPower, state.MaxTile)
	}
	if state.FreeCells != 7 {
		t.Errorf("Expected 7 free cells, got %d", state.FreeCells)
	}
	if len(state.Tiles) != 2 {
		t.Errorf("Expected 2 tiles, got %d", len(state.Tiles))
	}
	if state.Tiles[1].Value != 8 {
		t.Errorf("Expected value 8, got %d", state.Tiles[1].Value)
	}

	// mutating the snapshot must not touch the round
	state.Board[0][0] = 9
	state.Tiles[0].Power = 9
	if r.State().Board[0][0] != 1 {
		t.Error("Snapshot board aliases the grid")
	}
	if r.MaxPower() != 3 {
		t.Error("Snapshot tiles alias the grid")
	}
}

func TestCheckInvariants(t *testing.T) {
	r := newTestRound(t, [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{0, 0, 0},
	})
	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("Expected valid grid, got %v", err)
	}

	// corrupt the grid directly
	r.grid[2][2] = r.grid[0][0]
	if err := r.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Expected ErrInvariantViolation for duplicated id, got %v", err)
	}

	r.grid[2][2] = &Tile{ID: 99, Power: 1}
	if err := r.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Expected ErrInvariantViolation for id ahead of counter, got %v", err)
	}

	r.grid[2][2] = &Tile{ID: 2, Power: 0}
	r.grid[0][1] = nil
	if err := r.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Expected ErrInvariantViolation for zero power, got %v", err)
	}
}

func TestRoundString(t *testing.T) {
	r := newTestRound(t, [][]int{
		{1, 0, 0},
		{0, 11, 0},
		{0, 0, 0},
	})

	out := r.String()
	if !strings.Contains(out, "    2 |") {
		t.Errorf("Expected value 2 in board, got:\n%s", out)
	}
	if !strings.Contains(out, " 2048 |") {
		t.Errorf("Expected value 2048 in board, got:\n%s", out)
	}
	if strings.Count(out, "\n") != 7 {
		t.Errorf("Expected 7 lines for a 3x3 board, got:\n%s", out)
	}
}

func TestRenderBoard_Empty(t *testing.T) {
	if RenderBoard(nil) != "" {
		t.Error("Expected empty output for an empty board")
	}
}
