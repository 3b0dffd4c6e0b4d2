// Command validate checks the game descriptions in ../games. Beyond parsing
// it deals every game over a range of seeds and checks:
//   - the description parses and its rules are consistent
//   - every pile category takes part in at least one rule
//   - the win condition only names categories some rule can change
//   - deals are not already won and offer at least one legal action
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/sgdl"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateDescription loads a description file and validates it over seeds deals
func validateDescription(filePath string, seeds int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	rules, err := sgdl.Parse(string(data))
	if err != nil {
		result.fail("Invalid description: %v", err)
		return result
	}
	eng, err := engine.NewEngine(rules)
	if err != nil {
		result.fail("Invalid rules: %v", err)
		return result
	}

	touched := touchedCategories(rules)
	for _, cat := range categories(rules) {
		if !touched[cat] {
			result.warn("%s never takes part in a move", cat)
		}
	}
	for _, cat := range winCategories(rules.Win) {
		if !touched[cat] {
			result.fail("Win condition depends on %s, which no rule can change", cat)
		}
	}

	if result.Valid {
		deals := validateDeals(eng, seeds)
		result.Warnings = append(result.Warnings, deals.Warnings...)
		if !deals.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, deals.Errors...)
		} else {
			result.Errors = append(result.Errors, deals.Errors...)
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", rules.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Deck: %d cards", rules.Deck.Size()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Piles: %d in %s", len(rules.Layout.Piles), strings.Join(categories(rules), ", ")))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Rules: %d moves, %d automatic", len(rules.Moves), len(rules.Auto)))
	}
	return result
}

// validateDeals deals seeds games. A deal that is already won or has no
// legal action is suspicious; when every deal is, the description is invalid.
func validateDeals(eng *engine.Engine, seeds int) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	if seeds <= 0 {
		seeds = 1
	}

	won, stuck, total := 0, 0, 0
	for seed := int64(1); seed <= int64(seeds); seed++ {
		g, err := engine.NewGame(eng, seed)
		if err != nil {
			result.fail("Deal with seed %d failed: %v", seed, err)
			return result
		}
		switch {
		case g.Won():
			won++
		case len(g.Actions()) == 0:
			stuck++
		}
		total += len(g.Actions())
	}

	if won == seeds {
		result.fail("Every deal is won before the first move")
	} else if won > 0 {
		result.warn("%d/%d deals are won before the first move", won, seeds)
	}
	if stuck == seeds {
		result.fail("No deal offers a legal action")
	} else if stuck > 0 {
		result.warn("%d/%d deals offer no legal action", stuck, seeds)
	}
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Deals: %d seeds, %.1f opening actions on average", seeds, float64(total)/float64(seeds)))
	}
	return result
}

// categories lists the declared pile categories in first-seen order
func categories(rules *engine.Rules) []string {
	var out []string
	seen := map[string]bool{}
	if rules.Layout.Draw != nil {
		out = append(out, engine.DrawCategory)
		seen[engine.DrawCategory] = true
	}
	for _, p := range rules.Layout.Piles {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// touchedCategories returns the categories whose piles some action can change
func touchedCategories(rules *engine.Rules) map[string]bool {
	touched := map[string]bool{}
	for _, set := range [][]engine.Rule{rules.Moves, rules.Auto} {
		for _, r := range set {
			touched[r.Source] = true
			touched[r.Dest] = true
		}
	}
	if d := rules.Layout.Draw; d != nil {
		touched[engine.DrawCategory] = true
		for _, t := range d.Targets {
			touched[t] = true
		}
	}
	return touched
}

// winCategories collects the categories named by pile predicates of the win condition
func winCategories(c *engine.Condition) []string {
	set := map[string]bool{}
	var walk func(*engine.Condition)
	walk = func(c *engine.Condition) {
		if c == nil {
			return
		}
		if c.Leaf != nil {
			for _, cat := range c.Leaf.Categories {
				set[cat] = true
			}
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	walk(c)

	out := make([]string, 0, len(set))
	for cat := range set {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// main validates every description in the games directory (or the files
// given as arguments), printing a concise report and exiting with non-zero
// status if any are invalid.
func main() {
	gamesDir := flag.String("games-dir", "../games", "Directory containing game descriptions")
	seeds := flag.Int("seeds", 20, "Number of deals to try per game")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join(*gamesDir, "*.sgdl"))
		if err != nil {
			fmt.Printf("Error finding game descriptions: %v\n", err)
			os.Exit(1)
		}
	}

	allValid := true
	for _, file := range files {
		result := validateDescription(file, *seeds)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
		for _, w := range result.Warnings {
			fmt.Println("  ⚠️  " + w)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All game descriptions are valid!")
	} else {
		fmt.Println("❌ Some game descriptions have errors")
		os.Exit(1)
	}
}
