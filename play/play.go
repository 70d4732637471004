// Package play is a line-based terminal front end for the game service.
package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

const help = "w/a/s/d (or up/left/down/right) to move, n for a new game, q to quit"

var keys = map[string]engine.Direction{
	"w": engine.Up,
	"a": engine.Left,
	"s": engine.Down,
	"d": engine.Right,
}

// Play creates a session with configName and runs turns read from r until q,
// EOF or ctx is done. Output goes to w.
func Play(ctx context.Context, r io.Reader, w io.Writer, svc service.GameService, configName string) error {
	session, err := svc.CreateSession(ctx, configName)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer svc.DeleteSession(context.Background(), session.ID)

	log.Debug().Str("session", session.ID).Str("config", session.ConfigName).Msg("terminal game started")

	fmt.Fprintf(w, "%s (%dx%d)\n%s\n\n", session.GameConfig.Name, session.GameState.GameSize, session.GameState.GameSize, help)
	printState(w, session.GameState)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(w, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(w)
				return nil
			}
			line = strings.ToLower(strings.TrimSpace(l))
		}

		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			fmt.Fprintln(w, "Bye.")
			return nil
		case "n", "new":
			state, err := svc.NewGame(ctx, session.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "New game.")
			printState(w, state)
			continue
		case "h", "help", "?":
			fmt.Fprintln(w, help)
			continue
		case "showcase":
			state, err := svc.Showcase(ctx, session.ID)
			if err != nil {
				return err
			}
			printState(w, state)
			continue
		}

		direction := line
		if d, ok := keys[line]; ok {
			direction = string(d)
		}

		result, err := svc.Move(ctx, session.ID, direction)
		if err != nil {
			if service.IsNotFound(err) {
				return err
			}
			fmt.Fprintf(w, "%v (%s)\n", err, help)
			continue
		}
		printTurn(w, result)
	}
}

func printTurn(w io.Writer, result *service.MoveResult) {
	turn := result.Turn
	if !turn.Effective {
		fmt.Fprintf(w, "Nothing moves %s.\n", turn.Direction)
	} else {
		for _, m := range turn.Mergers {
			fmt.Fprintf(w, "Merged into %d\n", 1<<m.NewPower)
		}
	}

	printState(w, result.GameState)

	if result.NewHighScore {
		fmt.Fprintln(w, result.Message)
	}
	if result.GameState.GameOver {
		if !result.NewHighScore && result.BestScore > 0 {
			fmt.Fprintf(w, "Best score: %d\n", result.BestScore)
		}
		fmt.Fprintln(w, "Press n for a new game or q to quit.")
	}
}

func printState(w io.Writer, state *engine.GameState) {
	fmt.Fprint(w, engine.RenderBoard(state.Board))
	fmt.Fprintf(w, "Score: %d  Turns: %d  Max tile: %d\n", state.TotalScore, state.TurnsPlayed, state.MaxTile)
	if state.Message != "" {
		fmt.Fprintln(w, state.Message)
	}
}
