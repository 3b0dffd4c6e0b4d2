package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sgdl-solitaire/game/player"
	"github.com/wricardo/sgdl-solitaire/game/simulation"
	"github.com/wricardo/sgdl-solitaire/game/store"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Play a batch of games with a bot and report the win rate",
		ArgsUsage: "[game id or .sgdl file]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 100, Usage: "Number of games"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Batch seed"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "Games played in parallel"},
			&cli.IntFlag{Name: "max-moves", Value: simulation.DefaultMaxMoves, Usage: "Move cap per game"},
			&cli.StringFlag{Name: "player", Value: "norepeat", Usage: "random, norepeat or mcts"},
			&cli.StringFlag{Name: "heuristic", Value: "default", Usage: "none, default, nodraw, actions, foundation, runs or lua"},
			&cli.StringFlag{Name: "script", Usage: "Lua script defining score(view, action), implies --heuristic lua"},
			&cli.IntFlag{Name: "iterations", Value: player.DefaultIterations, Usage: "MCTS iterations per decision"},
			&cli.IntFlag{Name: "rollout-depth", Value: player.DefaultRolloutDepth, Usage: "MCTS playout length"},
			&cli.BoolFlag{Name: "json", Usage: "Print the statistics as JSON"},
			&cli.StringFlag{Name: "results-dsn", Usage: "Record every game in this database", Sources: cli.EnvVars("SGDL_RESULTS_DSN")},
			&cli.StringFlag{Name: "results-driver", Value: store.DriverSQLite, Usage: "Results database driver", Sources: cli.EnvVars("SGDL_RESULTS_DRIVER")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameID := cmd.Args().First()
			rules, err := loadRules(cmd.String("games-dir"), gameID)
			if err != nil {
				return err
			}
			if gameID == "" {
				gameID = rules.Name
			}

			heuristicName := cmd.String("heuristic")
			script := ""
			if path := cmd.String("script"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				script, heuristicName = string(data), "lua"
			}
			h, closeHeuristic, err := heuristicByName(heuristicName, script)
			if err != nil {
				return err
			}
			defer closeHeuristic()

			playerName := cmd.String("player")
			newPlayer, err := playerFactory(playerName, h, player.MCTSConfig{
				Iterations:   int(cmd.Int("iterations")),
				RolloutDepth: int(cmd.Int("rollout-depth")),
			})
			if err != nil {
				return err
			}

			cfg := simulation.Config{
				GameID:    gameID,
				Games:     int(cmd.Int("games")),
				Seed:      cmd.Int64("seed"),
				Workers:   int(cmd.Int("workers")),
				MaxMoves:  int(cmd.Int("max-moves")),
				Player:    playerName + "/" + heuristicName,
				NewPlayer: newPlayer,
				Logger:    logger.With().Str("component", "simulation").Logger(),
			}
			if dsn := cmd.String("results-dsn"); dsn != "" {
				results, err := store.Open(cmd.String("results-driver"), dsn)
				if err != nil {
					return fmt.Errorf("failed to open results database: %w", err)
				}
				defer results.Close()
				cfg.Recorder = results
			}

			stats, err := simulation.RunBatch(ctx, rules, cfg)
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			if cmd.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(out, stats)
			return nil
		},
	}
}

var heuristics = map[string]player.Heuristic{
	"nodraw":     player.NoDraw,
	"actions":    player.ActionCount,
	"foundation": player.CategoryCards("FOUNDATION"),
	"runs":       player.Runs("COLUMN"),
	"default": player.Merged(
		player.Weighted{Heuristic: player.CategoryCards("FOUNDATION"), Weight: 10},
		player.Weighted{Heuristic: player.Runs("COLUMN"), Weight: 1},
		player.Weighted{Heuristic: player.ActionCount, Weight: 0.5},
	),
}

// heuristicByName returns the named heuristic wrapped so a winning move always
// scores highest. "none" yields nil and "lua" compiles script. The returned
// func releases any resources the heuristic holds.
func heuristicByName(name, script string) (player.Heuristic, func(), error) {
	switch name {
	case "none", "":
		return nil, func() {}, nil
	case "lua":
		if script == "" {
			return nil, nil, fmt.Errorf("heuristic lua needs --script")
		}
		lh, err := player.NewLuaHeuristic(script)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := lh.Err(); err != nil {
				logger.Warn().Err(err).Msg("Lua heuristic reported errors")
			}
			lh.Close()
		}
		return player.WinBonus(lh.Heuristic()), closer, nil
	}
	h, ok := heuristics[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown heuristic %q (known: none, lua, %s)", name, strings.Join(heuristicNames(), ", "))
	}
	return player.WinBonus(h), func() {}, nil
}

func heuristicNames() []string {
	names := make([]string, 0, len(heuristics))
	for name := range heuristics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// playerFactory builds one fresh player per game. MCTS playouts follow the
// heuristic when one is set.
func playerFactory(name string, h player.Heuristic, cfg player.MCTSConfig) (func(seed int64) player.Player, error) {
	switch name {
	case "random":
		return func(seed int64) player.Player { return player.NewRandom(seed, h) }, nil
	case "norepeat":
		return func(seed int64) player.Player { return player.NewNoRepeat(seed, h) }, nil
	case "mcts":
		if h != nil {
			cfg.Rollout = func(rng *rand.Rand) player.Player { return player.NewRandom(rng.Int63(), h) }
		}
		return func(seed int64) player.Player { return player.NewMCTS(seed, cfg) }, nil
	}
	return nil, fmt.Errorf("unknown player %q (known: random, norepeat, mcts)", name)
}

func printStats(out io.Writer, s *simulation.Stats) {
	fmt.Fprintf(out, "Run %s: %s\n", s.RunID, s.GameID)
	fmt.Fprintf(out, "Games:      %d\n", s.Games)
	fmt.Fprintf(out, "Won:        %d (%.1f%%)\n", s.Wins, s.WinRate*100)
	fmt.Fprintf(out, "Stuck:      %d\n", s.Stuck)
	fmt.Fprintf(out, "Move limit: %d\n", s.Capped)
	fmt.Fprintf(out, "Moves:      avg %.1f, median %d, avg to win %.1f\n", s.AvgMoves, s.MedianMoves, s.AvgWinMoves)
	fmt.Fprintf(out, "Duration:   %s\n", s.Duration)
}
