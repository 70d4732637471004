// Command analyze prints quick balance heuristics for the game variants in
// the configs directory: the spawn probability table, the expected value of
// a spawned tile, and a seeded random-direction simulation (turns survived,
// score, max tile). It is a sanity check, not a solver.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mergegame/game/config"
	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// SpawnOdds is the chance of one spawn power
type SpawnOdds struct {
	Power       int
	Value       int
	Probability float64
}

// Summary aggregates a batch of simulated games
type Summary struct {
	Games     int
	AvgTurns  float64
	AvgScore  float64
	BestScore int
	// MaxTiles counts games by the largest tile value reached
	MaxTiles map[int]int
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "print spawn odds and a random-play simulation for every game variant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 200,
				Usage: "simulated games per variant",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "random seed for spawns and directions",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			infos, err := manager.ListConfigs()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return fmt.Errorf("no valid configs in %s", cmd.String("config-dir"))
			}

			for _, info := range infos {
				cfg, err := manager.LoadConfig(info.ConfigID)
				if err != nil {
					return err
				}
				if err := report(out, info.ConfigID, cfg, int(cmd.Int("games")), int64(cmd.Int("seed"))); err != nil {
					return fmt.Errorf("%s: %w", info.ConfigID, err)
				}
			}
			return nil
		},
	}
}

// spawnOdds turns a weight table into probabilities
func spawnOdds(weights []engine.SpawnWeight) []SpawnOdds {
	total := 0
	for _, w := range weights {
		total += w.Weight
	}
	odds := make([]SpawnOdds, 0, len(weights))
	for _, w := range weights {
		odds = append(odds, SpawnOdds{
			Power:       w.Power,
			Value:       1 << w.Power,
			Probability: float64(w.Weight) / float64(total),
		})
	}
	return odds
}

// expectedSpawnValue is the mean displayed value of a spawned tile
func expectedSpawnValue(weights []engine.SpawnWeight) float64 {
	var ev float64
	for _, o := range spawnOdds(weights) {
		ev += o.Probability * float64(o.Value)
	}
	return ev
}

// simulate plays games rounds picking a random possible direction each turn
func simulate(cfg *engine.GameConfig, games int, seed int64) (Summary, error) {
	rng := rand.New(rand.NewSource(seed))
	summary := Summary{Games: games, MaxTiles: make(map[int]int)}
	if games <= 0 {
		return summary, fmt.Errorf("games must be positive, got %d", games)
	}

	totalTurns, totalScore := 0, 0
	for g := 0; g < games; g++ {
		round, err := engine.NewRoundFromConfig(cfg, engine.WithRand(rng))
		if err != nil {
			return summary, err
		}

		for !round.IsGameOver() {
			moves := round.PossibleMoves()
			if len(moves) == 0 {
				break
			}
			round.MakeTurn(moves[rng.Intn(len(moves))])
		}

		if err := round.CheckInvariants(); err != nil {
			return summary, err
		}

		totalTurns += round.TurnsPlayed()
		totalScore += round.TotalScore()
		if round.TotalScore() > summary.BestScore {
			summary.BestScore = round.TotalScore()
		}
		summary.MaxTiles[1<<round.MaxPower()]++
	}

	summary.AvgTurns = float64(totalTurns) / float64(games)
	summary.AvgScore = float64(totalScore) / float64(games)
	return summary, nil
}

func report(w io.Writer, id string, cfg *engine.GameConfig, games int, seed int64) error {
	round, err := engine.NewRoundFromConfig(cfg)
	if err != nil {
		return err
	}
	weights := round.SpawnWeights()

	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", id)
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", cfg.GameSize, cfg.GameSize)
	fmt.Fprintf(w, "Initial Tiles: %d\n", cfg.InitialTiles)

	fmt.Fprintln(w, "Spawn odds:")
	for _, o := range spawnOdds(weights) {
		fmt.Fprintf(w, "  %5d  %5.1f%%\n", o.Value, o.Probability*100)
	}
	fmt.Fprintf(w, "Expected spawn value: %.2f\n", expectedSpawnValue(weights))

	summary, err := simulate(cfg, games, seed)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Random play (%d games, seed %d):\n", summary.Games, seed)
	fmt.Fprintf(w, "  Avg turns: %.1f\n", summary.AvgTurns)
	fmt.Fprintf(w, "  Avg score: %.1f\n", summary.AvgScore)
	fmt.Fprintf(w, "  Best score: %d\n", summary.BestScore)

	tiles := make([]int, 0, len(summary.MaxTiles))
	for tile := range summary.MaxTiles {
		tiles = append(tiles, tile)
	}
	sort.Ints(tiles)
	parts := make([]string, len(tiles))
	for i, tile := range tiles {
		parts[i] = fmt.Sprintf("%d×%d", tile, summary.MaxTiles[tile])
	}
	fmt.Fprintf(w, "  Max tile: %s\n", strings.Join(parts, " "))
	return nil
}
