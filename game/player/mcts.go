package player

import (
	"math"
	"math/rand"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

const (
	DefaultIterations       = 200
	DefaultRolloutDepth     = 100
	DefaultExplorationParam = 0.5
)

// MCTSConfig tunes the tree search. Zero fields take the defaults.
type MCTSConfig struct {
	Iterations       int
	RolloutDepth     int
	ExplorationParam float64
	// Rollout builds the player used for playouts. Defaults to a uniform
	// random player.
	Rollout func(rng *rand.Rand) Player
}

// MCTS searches a scrambled copy of the position, so hidden cards are
// guessed rather than read. The search is bounded by iterations, not time,
// so a fixed seed always yields the same decisions.
type MCTS struct {
	cfg MCTSConfig
	rng *rand.Rand
}

// NewMCTS creates a Monte Carlo tree search player
func NewMCTS(seed int64, cfg MCTSConfig) *MCTS {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.RolloutDepth <= 0 {
		cfg.RolloutDepth = DefaultRolloutDepth
	}
	if cfg.ExplorationParam == 0 {
		cfg.ExplorationParam = DefaultExplorationParam
	}
	if cfg.Rollout == nil {
		cfg.Rollout = func(rng *rand.Rand) Player { return NewRandom(rng.Int63(), nil) }
	}
	return &MCTS{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

type mctsNode struct {
	state    *engine.GameState
	action   engine.Action
	won      bool
	parent   *mctsNode
	children []*mctsNode
	expanded bool
	visits   int
	wins     float64
}

func (n *mctsNode) ucb(c float64) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	return n.wins/float64(n.visits) + c*math.Sqrt(math.Log(float64(n.parent.visits))/float64(n.visits))
}

func (p *MCTS) Decide(e *engine.Engine, s *engine.GameState) (engine.Action, bool) {
	actions := e.Actions(s)
	if len(actions) == 0 {
		return engine.Action{}, false
	}
	if len(actions) == 1 {
		return actions[0], true
	}

	root := &mctsNode{state: engine.Scramble(s, p.rng)}
	seen := map[string]struct{}{stateKey(root.state): {}}

	for i := 0; i < p.cfg.Iterations; i++ {
		node := p.selectNode(e, root, seen)
		won := node.won || p.rollout(e, node.state)
		for n := node; n != nil; n = n.parent {
			n.visits++
			if won {
				n.wins++
			}
		}
	}

	var best []*mctsNode
	bestRate := -1.0
	for _, c := range root.children {
		if c.visits == 0 {
			continue
		}
		rate := c.wins / float64(c.visits)
		switch {
		case rate > bestRate:
			best, bestRate = []*mctsNode{c}, rate
		case rate == bestRate:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return actions[p.rng.Intn(len(actions))], true
	}
	return best[p.rng.Intn(len(best))].action, true
}

// selectNode descends by UCB until it reaches an unvisited or unexpanded
// node, expanding the latter. Positions already in the tree are not added
// again, which keeps draw pile cycles out of it.
func (p *MCTS) selectNode(e *engine.Engine, node *mctsNode, seen map[string]struct{}) *mctsNode {
	for node.expanded && len(node.children) > 0 {
		var top []*mctsNode
		topScore := math.Inf(-1)
		for _, c := range node.children {
			score := c.ucb(p.cfg.ExplorationParam)
			switch {
			case score > topScore:
				top, topScore = []*mctsNode{c}, score
			case score == topScore:
				top = append(top, c)
			}
		}
		node = top[p.rng.Intn(len(top))]
		if node.visits == 0 {
			return node
		}
	}
	if node.won || node.expanded {
		return node
	}

	node.expanded = true
	for _, n := range successors(e, node.state) {
		key := stateKey(n.state)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		node.children = append(node.children, &mctsNode{state: n.state, action: n.action, won: n.won, parent: node})
	}
	if len(node.children) == 0 {
		return node
	}
	return node.children[p.rng.Intn(len(node.children))]
}

func (p *MCTS) rollout(e *engine.Engine, s *engine.GameState) bool {
	strategist := p.cfg.Rollout(p.rng)
	for depth := 0; depth < p.cfg.RolloutDepth; depth++ {
		if e.Won(s) {
			return true
		}
		a, ok := strategist.Decide(e, s)
		if !ok {
			return false
		}
		res, err := e.Apply(s, a)
		if err != nil || !res.Applied {
			return false
		}
		s = res.State
	}
	return e.Won(s)
}
