package player

import (
	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// WinScore is the score the win-aware heuristics give a won position
const WinScore = 1e12

// Heuristic scores the state an action leads to. Higher is better.
type Heuristic func(e *engine.Engine, next *engine.GameState, a engine.Action) float64

// NoDraw prefers anything over drawing
func NoDraw(_ *engine.Engine, _ *engine.GameState, a engine.Action) float64 {
	if a.Kind == engine.ActionDraw {
		return 0
	}
	return 1
}

// ActionCount prefers positions with more legal actions, and a win above all
func ActionCount(e *engine.Engine, next *engine.GameState, _ engine.Action) float64 {
	if e.Won(next) {
		return WinScore
	}
	return float64(len(e.Actions(next)))
}

// CategoryCards scores the number of cards gathered in a category, such as
// the foundations
func CategoryCards(category string) Heuristic {
	return func(_ *engine.Engine, next *engine.GameState, _ engine.Action) float64 {
		return float64(engine.CategorySize(next, category))
	}
}

// Runs rewards long face-up runs of one suit descending by one at the top
// of each pile in the category. A run of length n scores n*n.
func Runs(category string) Heuristic {
	return func(_ *engine.Engine, next *engine.GameState, _ engine.Action) float64 {
		score := 0.0
		for _, p := range next.Piles[category] {
			n := p.Len()
			if n == 0 {
				continue
			}
			run := 1
			for i := n - 2; i >= 0; i-- {
				below, above := p.Slots[i], p.Slots[i+1]
				if !below.FaceUp || below.Card.Suit != above.Card.Suit || below.Card.Rank != above.Card.Rank+1 {
					break
				}
				run++
			}
			score += float64(run * run)
		}
		return score
	}
}

// WinBonus returns WinScore for a won position and h otherwise
func WinBonus(h Heuristic) Heuristic {
	return func(e *engine.Engine, next *engine.GameState, a engine.Action) float64 {
		if e.Won(next) {
			return WinScore
		}
		return h(e, next, a)
	}
}

// Weighted pairs a heuristic with its weight in Merged
type Weighted struct {
	Heuristic Heuristic
	Weight    float64
}

// Merged sums weighted heuristics
func Merged(parts ...Weighted) Heuristic {
	return func(e *engine.Engine, next *engine.GameState, a engine.Action) float64 {
		total := 0.0
		for _, p := range parts {
			total += p.Weight * p.Heuristic(e, next, a)
		}
		return total
	}
}
