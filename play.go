package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sgdl-solitaire/game/config"
	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/sgdl"
)

const playHelp = `Enter an action number, an action such as "move COLUMN[0] FOUNDATION[1]",
"? <action>" to explain an action without playing it, "r" to restart or "q" to quit.
`

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play a game in the terminal",
		ArgsUsage: "[game id or .sgdl file]",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "Deal seed (random when zero)"},
			&cli.BoolFlag{Name: "reveal", Usage: "Show face-down cards"},
			&cli.IntFlag{Name: "auto-limit", Value: engine.DefaultAutoMoveLimit, Usage: "Cap of the automatic move pass"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rules, err := loadRules(cmd.String("games-dir"), cmd.Args().First())
			if err != nil {
				return err
			}
			eng, err := engine.NewEngine(rules,
				engine.WithAutoMoveLimit(int(cmd.Int("auto-limit"))),
				engine.WithLogger(logger.With().Str("component", "engine").Logger()),
			)
			if err != nil {
				return err
			}
			seed := cmd.Int64("seed")
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			g, err := engine.NewGame(eng, seed)
			if err != nil {
				return err
			}
			root := cmd.Root()
			return playLoop(ctx, g, root.Reader, root.Writer, cmd.Bool("reveal"))
		},
	}
}

// loadRules resolves a game id through the games directory, or parses the
// named file directly when it ends in .sgdl and exists. An empty name selects
// the default game.
func loadRules(gamesDir, name string) (*engine.Rules, error) {
	if strings.HasSuffix(name, config.Extension) {
		if data, err := os.ReadFile(name); err == nil {
			return sgdl.Parse(string(data))
		}
	}
	games, err := config.NewManager(gamesDir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = games.DefaultID()
	}
	return games.LoadGame(name)
}

// playLoop runs the interactive game until the input ends, the player quits
// or the game is won.
func playLoop(ctx context.Context, g *engine.Game, in io.Reader, out io.Writer, reveal bool) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Seed %d\n%s", g.Seed(), playHelp)

	for {
		if g.Won() {
			fmt.Fprintf(out, "%s\nYou won in %d moves!\n", g.State().Snapshot(reveal).Text(), len(g.Log()))
			return nil
		}
		actions := g.Actions()
		printPosition(out, g, actions, reveal)
		if len(actions) == 0 {
			fmt.Fprintln(out, "No legal actions left. Game over.")
			return nil
		}

		fmt.Fprint(out, "> ")
		if err := ctx.Err(); err != nil {
			return err
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			return nil
		case line == "r" || line == "reset":
			if err := g.Reset(); err != nil {
				return err
			}
			continue
		case line == "h" || line == "help":
			fmt.Fprint(out, playHelp)
			continue
		case strings.HasPrefix(line, "?"):
			explain(out, g, actions, strings.TrimSpace(strings.TrimPrefix(line, "?")))
			continue
		}

		a, err := pickAction(actions, line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		res, err := g.Apply(a)
		if err != nil {
			return err
		}
		if !res.Applied {
			fmt.Fprintf(out, "Rejected: %s\n%s", a, res.Trace.Render())
			continue
		}
		for _, auto := range res.AutoMoves {
			fmt.Fprintf(out, "auto: %s\n", auto)
		}
	}
}

func printPosition(out io.Writer, g *engine.Game, actions []engine.Action, reveal bool) {
	snap := g.State().Snapshot(reveal)
	fmt.Fprintf(out, "\n%sMoves: %d\n", snap.Text(), snap.Moves)
	for i, a := range actions {
		fmt.Fprintf(out, "  %d. %s\n", i, a)
	}
}

// pickAction accepts an index into actions or an action in text form
func pickAction(actions []engine.Action, input string) (engine.Action, error) {
	if i, err := strconv.Atoi(input); err == nil {
		if i < 0 || i >= len(actions) {
			return engine.Action{}, fmt.Errorf("no action %d, pick 0-%d", i, len(actions)-1)
		}
		return actions[i], nil
	}
	return engine.ParseAction(input)
}

func explain(out io.Writer, g *engine.Game, actions []engine.Action, input string) {
	if input == "" {
		fmt.Fprintln(out, g.Engine().WinTrace(g.State()).Render())
		return
	}
	a, err := pickAction(actions, input)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	ok, trace := g.Validate(a)
	verdict := "legal"
	if !ok {
		verdict = "illegal"
	}
	fmt.Fprintf(out, "%s is %s\n", a, verdict)
	if trace != nil {
		fmt.Fprint(out, trace.Render())
	}
}
