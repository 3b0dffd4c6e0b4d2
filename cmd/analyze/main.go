// Command analyze prints quick, human-readable statistics about the game
// descriptions in the project's games directory. It summarizes the deck, the
// layout and the rules, then deals a range of seeds and reports how many
// cards start hidden and how many actions the opening offers.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/sgdl"
)

const dealsPerGame = 50

// Analysis summarizes one game description
type Analysis struct {
	Name       string
	DeckSize   int
	Piles      map[string]int
	Draw       string
	Moves      int
	Auto       int
	Deals      int
	MinActions int
	MaxActions int
	AvgActions float64
	AvgHidden  float64
	Stuck      int
	Won        int
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files, _ = filepath.Glob(filepath.Join("games", "*.sgdl"))
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		a, err := analyzeDescription(file, dealsPerGame)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}

func analyzeDescription(path string, deals int) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	rules, err := sgdl.Parse(string(data))
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(rules)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Name:     rules.Name,
		DeckSize: rules.Deck.Size(),
		Piles:    map[string]int{},
		Draw:     "none",
		Moves:    len(rules.Moves),
		Auto:     len(rules.Auto),
	}
	for _, p := range rules.Layout.Piles {
		a.Piles[p.Category]++
	}
	if d := rules.Layout.Draw; d != nil {
		if d.Mode == engine.DrawDeal {
			a.Draw = fmt.Sprintf("%d cards dealt into %s", d.Count, strings.Join(d.Targets, ", "))
		} else {
			a.Draw = fmt.Sprintf("%d cards rotating %d at a time", d.Count, d.DrawCount)
		}
	}

	hidden, actions := 0, 0
	for seed := int64(1); seed <= int64(deals); seed++ {
		g, err := engine.NewGame(eng, seed)
		if err != nil {
			return nil, fmt.Errorf("deal %d: %w", seed, err)
		}
		n := len(g.Actions())
		if a.Deals == 0 || n < a.MinActions {
			a.MinActions = n
		}
		if n > a.MaxActions {
			a.MaxActions = n
		}
		if n == 0 {
			a.Stuck++
		}
		if g.Won() {
			a.Won++
		}
		actions += n
		hidden += engine.HiddenCount(g.State())
		a.Deals++
	}
	if a.Deals > 0 {
		a.AvgActions = float64(actions) / float64(a.Deals)
		a.AvgHidden = float64(hidden) / float64(a.Deals)
	}
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	cats := make([]string, 0, len(a.Piles))
	for cat := range a.Piles {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	piles := make([]string, len(cats))
	for i, cat := range cats {
		piles[i] = fmt.Sprintf("%d %s", a.Piles[cat], cat)
	}

	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Deck: %d cards\n", a.DeckSize)
	fmt.Fprintf(w, "Piles: %s\n", strings.Join(piles, ", "))
	fmt.Fprintf(w, "Draw: %s\n", a.Draw)
	fmt.Fprintf(w, "Rules: %d moves, %d automatic\n", a.Moves, a.Auto)
	fmt.Fprintf(w, "Hidden at deal: %.1f cards on average\n", a.AvgHidden)
	fmt.Fprintf(w, "Opening actions over %d deals: min %d, max %d, avg %.1f\n", a.Deals, a.MinActions, a.MaxActions, a.AvgActions)

	if a.Stuck > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d deals offer no legal action!\n", a.Stuck)
	} else {
		fmt.Fprintf(w, "✅ Every deal offers at least one action\n")
	}
	if a.Won > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d deals are won before the first move!\n", a.Won)
	}
}
