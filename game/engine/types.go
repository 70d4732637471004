package engine

// Direction is the side of the grid tiles slide toward
type Direction string

const (
	Up    Direction = "up"
	Right Direction = "right"
	Down  Direction = "down"
	Left  Direction = "left"

	// Validation constants
	MinGameSize     = 3
	MaxGameSize     = 5
	DefaultGameSize = 4
	MaxBulkMoves    = 50
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Right, Down, Left}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Right, Down, Left:
		return true
	}
	return false
}

// Coordinates is a grid position; X is the column and Y the row, origin top-left
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tile is a single tile on the grid
type Tile struct {
	ID    int `json:"id"`
	Power int `json:"power"`
}

// Value returns the displayed value of the tile
func (t Tile) Value() int {
	return 1 << t.Power
}

// TileMoveEvent records a tile sliding to a new cell
type TileMoveEvent struct {
	TileID int         `json:"tile_id"`
	To     Coordinates `json:"to"`
}

// TileMergerEvent records a moving tile absorbed into a stationary one
type TileMergerEvent struct {
	AbsorbedID int `json:"absorbed_id"`
	IntoID     int `json:"into_id"`
	NewPower   int `json:"new_power"`
}

// TileSpawnEvent records a tile placed on a free cell
type TileSpawnEvent struct {
	Tile        Tile        `json:"tile"`
	Coordinates Coordinates `json:"coordinates"`
}

// TurnResult describes everything a turn changed
type TurnResult struct {
	Direction   Direction         `json:"direction"`
	Moves       []TileMoveEvent   `json:"moves"`
	Mergers     []TileMergerEvent `json:"mergers"`
	Spawn       *TileSpawnEvent   `json:"spawn"`
	GameOver    bool              `json:"game_over"`
	TotalScore  int               `json:"total_score"`
	TurnsPlayed int               `json:"turns_played"`
	ScoreDelta  int               `json:"score_delta"`

	// Effective is true when at least one tile moved or merged
	Effective bool `json:"effective"`
}

// SpawnWeight is one entry of a spawn power distribution
type SpawnWeight struct {
	Power  int `json:"power"`
	Weight int `json:"weight"`
}

// Messages holds the player-facing texts of a game variant
type Messages struct {
	Welcome      string `json:"welcome,omitempty"`
	GameOver     string `json:"game_over,omitempty"`
	NewHighScore string `json:"new_high_score,omitempty"`
}

// GameConfig represents a game variant loaded from JSON
type GameConfig struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	GameSize     int           `json:"game_size"`
	InitialTiles int           `json:"initial_tiles,omitempty"`
	SpawnWeights []SpawnWeight `json:"spawn_weights,omitempty"`
	Messages     Messages      `json:"messages"`
}

// TileState is a tile together with its position
type TileState struct {
	ID          int         `json:"id"`
	Power       int         `json:"power"`
	Value       int         `json:"value"`
	Coordinates Coordinates `json:"coordinates"`
}

// GameState is a read-only snapshot of a round
type GameState struct {
	GameSize    int         `json:"game_size"`
	Tiles       []TileState `json:"tiles"`
	Board       [][]int     `json:"board"` // powers, 0 = empty
	TotalScore  int         `json:"total_score"`
	TurnsPlayed int         `json:"turns_played"`
	GameOver    bool        `json:"game_over"`
	MaxPower    int         `json:"max_power"`
	MaxTile     int         `json:"max_tile"`
	FreeCells   int         `json:"free_cells"`
	ConfigName  string      `json:"config_name,omitempty"`
	Message     string      `json:"message,omitempty"`

	// Computed helper views (not required for core game logic)
	PossibleMoves []Direction `json:"possible_moves,omitempty"`
}
