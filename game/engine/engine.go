package engine

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// DefaultAutoMoveLimit bounds the automatic move pass that follows every action
const DefaultAutoMoveLimit = 1000

// Engine interprets a loaded rule set. It holds no game state and no locks:
// every operation takes the state explicitly and callers serialize access.
type Engine struct {
	rules    *Rules
	moves    map[ruleKey]*Rule
	auto     map[ruleKey]*Rule
	autoCap  int
	logger   zerolog.Logger
	deckSize int
}

// Option configures an Engine
type Option func(*Engine)

// WithAutoMoveLimit sets the iteration cap of the automatic move pass
func WithAutoMoveLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.autoCap = n
		}
	}
}

// WithLogger sets the logger used for automatic moves and faults
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Result describes the outcome of Apply. A rejected action leaves State as
// the state passed in and carries the trace explaining the rejection.
type Result struct {
	Applied   bool       `json:"applied"`
	Action    Action     `json:"action"`
	Trace     *Trace     `json:"trace"`
	AutoMoves []Action   `json:"auto_moves,omitempty"`
	Won       bool       `json:"won"`
	State     *GameState `json:"-"`
}

// NewEngine validates the rules and builds an engine for them
func NewEngine(rules *Rules, opts ...Option) (*Engine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	e := &Engine{
		rules:    rules,
		moves:    make(map[ruleKey]*Rule, len(rules.Moves)),
		auto:     make(map[ruleKey]*Rule, len(rules.Auto)),
		autoCap:  DefaultAutoMoveLimit,
		logger:   zerolog.Nop(),
		deckSize: rules.Deck.Size(),
	}
	for i := range rules.Moves {
		e.moves[rules.Moves[i].key()] = &rules.Moves[i]
	}
	for i := range rules.Auto {
		e.auto[rules.Auto[i].key()] = &rules.Auto[i]
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rules returns the loaded rule set
func (e *Engine) Rules() *Rules {
	return e.rules
}

// NewState deals a fresh game and settles its automatic moves
func (e *Engine) NewState(rng *rand.Rand) (*GameState, error) {
	s, err := InitGameState(e.rules, rng)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolve(s); err != nil {
		return nil, e.fault("deal", "", err)
	}
	if err := s.verify(e.deckSize); err != nil {
		return nil, e.fault("deal", "", err)
	}
	return s, nil
}

// Actions enumerates every legal player action in rule declaration order,
// then pile and card order. The draw action, when legal, comes last.
func (e *Engine) Actions(s *GameState) []Action {
	var out []Action
	for i := range e.rules.Moves {
		for _, a := range candidates(s, &e.rules.Moves[i]) {
			if ok, _ := e.check(s, a, false); ok {
				out = append(out, a)
			}
		}
	}
	if s.Draw != nil {
		if ok, _ := e.check(s, Draw, false); ok {
			out = append(out, Draw)
		}
	}
	return out
}

// Validate judges a proposed action and explains the verdict. It never mutates.
func (e *Engine) Validate(s *GameState, a Action) (bool, *Trace) {
	return e.check(s, a, false)
}

// Apply validates and performs an action, then resolves automatic moves and
// recomputes the win status. The passed state is never modified: on success
// Result.State is a new state, on rejection or fault nothing changes.
func (e *Engine) Apply(s *GameState, a Action) (Result, error) {
	ok, trace := e.check(s, a, false)
	res := Result{Action: a, Trace: trace, State: s}
	if !ok {
		return res, nil
	}

	next := s.Clone()
	perform(next, a)
	autos, err := e.resolve(next)
	if err != nil {
		return res, e.fault("apply", a.String(), err)
	}
	if err := next.verify(e.deckSize); err != nil {
		return res, e.fault("apply", a.String(), err)
	}
	next.Moves++

	res.Applied = true
	res.AutoMoves = autos
	res.State = next
	res.Won = e.Won(next)
	return res, nil
}

// ResolveAutomatic runs the automatic move pass on a copy of the state
func (e *Engine) ResolveAutomatic(s *GameState) (*GameState, []Action, error) {
	next := s.Clone()
	autos, err := e.resolve(next)
	if err != nil {
		return s, nil, e.fault("resolve", "", err)
	}
	if err := next.verify(e.deckSize); err != nil {
		return s, nil, e.fault("resolve", "", err)
	}
	return next, autos, nil
}

// resolve applies the first legal automatic move, in declaration then
// enumeration order, until none applies or the cap is reached.
func (e *Engine) resolve(s *GameState) ([]Action, error) {
	var applied []Action
	for n := 0; ; n++ {
		a, found := e.nextAutomatic(s)
		if !found {
			return applied, nil
		}
		if n >= e.autoCap {
			return applied, fmt.Errorf("%w: %d moves without reaching a fixed point", ErrAutoMoveLimit, e.autoCap)
		}
		e.logger.Debug().Str("action", a.String()).Msg("automatic move")
		perform(s, a)
		applied = append(applied, a)
	}
}

func (e *Engine) nextAutomatic(s *GameState) (Action, bool) {
	for i := range e.rules.Auto {
		for _, a := range candidates(s, &e.rules.Auto[i]) {
			if ok, _ := e.check(s, a, true); ok {
				return a, true
			}
		}
	}
	return Action{}, false
}

// Won evaluates the win condition against the current state
func (e *Engine) Won(s *GameState) bool {
	ok, _ := Evaluate(e.rules.Win, s, MoveContext{})
	return ok
}

// WinTrace evaluates the win condition and returns its trace
func (e *Engine) WinTrace(s *GameState) *Trace {
	_, t := Evaluate(e.rules.Win, s, MoveContext{})
	return t
}

func (e *Engine) fault(op, action string, err error) error {
	e.logger.Error().Err(err).Str("op", op).Str("action", action).Msg("engine fault")
	return &FaultError{Op: op, Action: action, Err: err}
}
