package player

import (
	"math/rand"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// Player chooses the next action for a state. ok is false when the player
// has nothing left to try.
type Player interface {
	Decide(e *engine.Engine, s *engine.GameState) (a engine.Action, ok bool)
}

// successor is a legal action together with the state it leads to
type successor struct {
	action engine.Action
	state  *engine.GameState
	won    bool
}

// successors applies every legal action to a copy of s. Engine faults drop
// the action; they are reported when the real game applies it.
func successors(e *engine.Engine, s *engine.GameState) []successor {
	actions := e.Actions(s)
	out := make([]successor, 0, len(actions))
	for _, a := range actions {
		res, err := e.Apply(s, a)
		if err != nil || !res.Applied {
			continue
		}
		out = append(out, successor{action: a, state: res.State, won: res.Won})
	}
	return out
}

// stateKey identifies a position as the player sees it
func stateKey(s *engine.GameState) string {
	return s.Snapshot(false).Text()
}

// Random picks uniformly among legal actions, or weighted by a heuristic
// when one is set. Negative scores count as zero; when every score is zero
// the pick is uniform.
type Random struct {
	rng       *rand.Rand
	heuristic Heuristic
}

// NewRandom creates a random player. h may be nil.
func NewRandom(seed int64, h Heuristic) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed)), heuristic: h}
}

func (p *Random) Decide(e *engine.Engine, s *engine.GameState) (engine.Action, bool) {
	if p.heuristic == nil {
		actions := e.Actions(s)
		if len(actions) == 0 {
			return engine.Action{}, false
		}
		return actions[p.rng.Intn(len(actions))], true
	}
	return p.weighted(e, successors(e, s))
}

func (p *Random) weighted(e *engine.Engine, next []successor) (engine.Action, bool) {
	if len(next) == 0 {
		return engine.Action{}, false
	}
	weights := make([]float64, len(next))
	total := 0.0
	for i, n := range next {
		if w := p.heuristic(e, n.state, n.action); w > 0 {
			weights[i] = w
			total += w
		}
	}
	if total == 0 {
		return next[p.rng.Intn(len(next))].action, true
	}
	r := p.rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return next[i].action, true
		}
		r -= w
	}
	return next[len(next)-1].action, true
}

// NoRepeat never moves into a position it has already seen. Among the new
// positions it takes the best scored one, or a random one without a
// heuristic. It keeps its memory between calls, so use one per game.
type NoRepeat struct {
	rng       *rand.Rand
	heuristic Heuristic
	seen      map[string]struct{}
}

// NewNoRepeat creates a no-repeat player. h may be nil.
func NewNoRepeat(seed int64, h Heuristic) *NoRepeat {
	return &NoRepeat{
		rng:       rand.New(rand.NewSource(seed)),
		heuristic: h,
		seen:      make(map[string]struct{}),
	}
}

func (p *NoRepeat) Decide(e *engine.Engine, s *engine.GameState) (engine.Action, bool) {
	p.seen[stateKey(s)] = struct{}{}

	var fresh []successor
	for _, n := range successors(e, s) {
		if _, ok := p.seen[stateKey(n.state)]; !ok {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		return engine.Action{}, false
	}
	if p.heuristic == nil {
		return fresh[p.rng.Intn(len(fresh))].action, true
	}

	best, bestScore := 0, p.heuristic(e, fresh[0].state, fresh[0].action)
	for i := 1; i < len(fresh); i++ {
		if score := p.heuristic(e, fresh[i].state, fresh[i].action); score > bestScore {
			best, bestScore = i, score
		}
	}
	return fresh[best].action, true
}

// Seen reports how many distinct positions the player has visited
func (p *NoRepeat) Seen() int {
	return len(p.seen)
}
