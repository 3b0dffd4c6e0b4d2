package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sgdl-solitaire/game/config"
	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/sgdl"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse game descriptions and report errors",
		ArgsUsage: "[file.sgdl ...] (defaults to every file in the games directory)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "print", Usage: "Print each description in canonical form"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				if files, err = descriptionFiles(cmd.String("games-dir")); err != nil {
					return err
				}
			}
			if failed := checkFiles(cmd.Root().Writer, files, cmd.Bool("print")); failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d descriptions failed", failed, len(files)), 1)
			}
			return nil
		},
	}
}

func descriptionFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+config.Extension))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// checkFiles reports one line per file and returns how many failed
func checkFiles(out io.Writer, files []string, print bool) int {
	failed := 0
	for _, file := range files {
		rules, err := checkFile(file)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s: %s (%d moves, %d automatic)\n", file, rules.Name, len(rules.Moves), len(rules.Auto))
		if print {
			fmt.Fprintln(out, sgdl.Format(rules))
		}
	}
	return failed
}

// checkFile parses a description and deals it once
func checkFile(path string) (*engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	game, err := sgdl.Load(string(data), 1)
	if err != nil {
		return nil, err
	}
	return game.Engine().Rules(), nil
}
