package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// HistoryEntry records one attempted player action
type HistoryEntry struct {
	Step      int      `json:"step"`
	Action    string   `json:"action"`
	Applied   bool     `json:"applied"`
	AutoMoves []string `json:"auto_moves,omitempty"`
	Won       bool     `json:"won"`
	Timestamp int64    `json:"timestamp"`
}

// Game binds an engine to one dealt state and tracks its history. The deal
// is fully determined by the seed, so a game can be rebuilt by replaying Log.
type Game struct {
	engine  *Engine
	seed    int64
	state   *GameState
	history []HistoryEntry
	log     []Action
}

// NewGame deals a game from the seed
func NewGame(e *Engine, seed int64) (*Game, error) {
	state, err := e.NewState(rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	return &Game{engine: e, seed: seed, state: state}, nil
}

// Engine returns the rules interpreter
func (g *Game) Engine() *Engine {
	return g.engine
}

// Seed returns the seed the game was dealt from
func (g *Game) Seed() int64 {
	return g.seed
}

// State returns the current state. Callers must not mutate it.
func (g *Game) State() *GameState {
	return g.state
}

// Actions returns the legal actions in the current state
func (g *Game) Actions() []Action {
	return g.engine.Actions(g.state)
}

// Validate judges an action against the current state
func (g *Game) Validate(a Action) (bool, *Trace) {
	return g.engine.Validate(g.state, a)
}

// Won reports whether the current state satisfies the win condition
func (g *Game) Won() bool {
	return g.engine.Won(g.state)
}

// Apply attempts an action and records it in the history
func (g *Game) Apply(a Action) (Result, error) {
	res, err := g.engine.Apply(g.state, a)
	if err != nil {
		return res, err
	}

	entry := HistoryEntry{
		Step:      len(g.history) + 1,
		Action:    a.String(),
		Applied:   res.Applied,
		Won:       res.Won,
		Timestamp: time.Now().Unix(),
	}
	for _, auto := range res.AutoMoves {
		entry.AutoMoves = append(entry.AutoMoves, auto.String())
	}
	g.history = append(g.history, entry)

	if res.Applied {
		g.state = res.State
		g.log = append(g.log, a)
	}
	return res, nil
}

// Fork returns an independent copy of the game. Actions applied to the copy
// leave the original untouched.
func (g *Game) Fork() *Game {
	return &Game{
		engine:  g.engine,
		seed:    g.seed,
		state:   g.state.Clone(),
		history: append([]HistoryEntry(nil), g.history...),
		log:     append([]Action(nil), g.log...),
	}
}

// ApplyText parses and applies an action in text form
func (g *Game) ApplyText(text string) (Result, error) {
	a, err := ParseAction(text)
	if err != nil {
		return Result{}, err
	}
	return g.Apply(a)
}

// Replay applies a sequence of actions, failing on the first rejection
func (g *Game) Replay(actions []Action) error {
	for i, a := range actions {
		res, err := g.Apply(a)
		if err != nil {
			return err
		}
		if !res.Applied {
			return fmt.Errorf("replay step %d: %s rejected", i+1, a)
		}
	}
	return nil
}

// Reset re-deals the game from its seed. The cumulative history is kept;
// the action log restarts.
func (g *Game) Reset() error {
	state, err := g.engine.NewState(rand.New(rand.NewSource(g.seed)))
	if err != nil {
		return err
	}
	g.state = state
	g.log = nil
	return nil
}

// History returns every recorded attempt, across resets
func (g *Game) History() []HistoryEntry {
	return g.history
}

// LastMove returns the last recorded attempt, or nil if none
func (g *Game) LastMove() *HistoryEntry {
	if len(g.history) == 0 {
		return nil
	}
	return &g.history[len(g.history)-1]
}

// Log returns the actions applied since the last reset
func (g *Game) Log() []Action {
	return g.log
}
