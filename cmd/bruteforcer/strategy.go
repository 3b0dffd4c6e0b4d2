package main

import (
	"math/rand"
	"strings"
)

// ExplorerStrategy works from the action lists the server offers. It never
// repeats an action from a position it has already left through it, and it
// ranks actions: foundation moves first, then stack moves, then other moves,
// and the draw last. Ties are broken at random so attempts differ.
type ExplorerStrategy struct {
	goal  string
	rng   *rand.Rand
	tried map[string]map[string]bool
}

func NewExplorerStrategy(goal string, seed int64) *ExplorerStrategy {
	return &ExplorerStrategy{
		goal:  goal,
		rng:   rand.New(rand.NewSource(seed)),
		tried: make(map[string]map[string]bool),
	}
}

// NextAction picks an untried action for the position, or "" when every
// action from it has been tried.
func (s *ExplorerStrategy) NextAction(position string, actions []string) string {
	tried := s.tried[position]
	if tried == nil {
		tried = make(map[string]bool)
		s.tried[position] = tried
	}

	best, bestRank, ties := "", -1, 0
	for _, a := range actions {
		if tried[a] {
			continue
		}
		r := s.rank(a)
		switch {
		case r > bestRank:
			best, bestRank, ties = a, r, 1
		case r == bestRank:
			ties++
			if s.rng.Intn(ties) == 0 {
				best = a
			}
		}
	}
	if best != "" {
		tried[best] = true
	}
	return best
}

func (s *ExplorerStrategy) rank(action string) int {
	fields := strings.Fields(action)
	switch {
	case len(fields) == 0 || fields[0] == "draw":
		return 0
	case strings.HasPrefix(fields[len(fields)-1], s.goal+"["):
		return 3
	case fields[0] == "move_stack":
		return 2
	}
	return 1
}

// Positions reports how many distinct positions were explored
func (s *ExplorerStrategy) Positions() int {
	return len(s.tried)
}

func (s *ExplorerStrategy) Reset() {
	s.tried = make(map[string]map[string]bool)
}
