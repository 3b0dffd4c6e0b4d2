package engine

import "fmt"

// checker accumulates the structural checks of an action ahead of its rule condition
type checker struct {
	root *Trace
}

func newChecker(a Action) *checker {
	return &checker{root: &Trace{Description: a.String(), Result: true}}
}

func (c *checker) require(description string, ok bool) bool {
	c.root.Children = append(c.root.Children, check(description, ok))
	if !ok {
		c.root.Result = false
	}
	return ok
}

func (c *checker) condition(cond *Condition, s *GameState, ctx MoveContext) {
	ok, t := Evaluate(cond, s, ctx)
	c.root.Children = append(c.root.Children, t)
	if !ok {
		c.root.Result = false
	}
}

func (c *checker) done() (bool, *Trace) {
	return c.root.Result, c.root
}

// check judges a concrete action against the player rules, or against the
// automatic rules when auto is set. It never mutates the state.
func (e *Engine) check(s *GameState, a Action, auto bool) (bool, *Trace) {
	c := newChecker(a)
	rules := e.moves
	if auto {
		rules = e.auto
	}

	switch a.Kind {
	case ActionDraw:
		if auto {
			c.require("draws are never automatic", false)
			return c.done()
		}
		if !c.require("game has a draw pile", s.Draw != nil) {
			return c.done()
		}
		if e.rules.Draw != nil {
			c.condition(e.rules.Draw, s, MoveContext{})
		}
		ok, reason := s.Draw.canDraw(s)
		c.require(reason, ok)
		return c.done()

	case ActionMove:
		rule := rules[ruleKey{kind: ActionMove, src: a.Source.Category, dst: a.Dest.Category}]
		if !c.require(fmt.Sprintf("a move rule governs %s to %s", a.Source.Category, a.Dest.Category), rule != nil) {
			return c.done()
		}
		dst := s.Pile(a.Dest)
		if !c.require("destination "+a.Dest.String()+" exists", dst != nil) {
			return c.done()
		}
		var (
			card    Card
			srcPile *Pile
		)
		if a.Source.IsDraw() {
			if !c.require("draw pile shows a face-up card", s.Draw != nil && s.Draw.Playable()) {
				return c.done()
			}
			card = s.Draw.Top()
		} else {
			srcPile = s.Pile(a.Source)
			if !c.require("source "+a.Source.String()+" exists", srcPile != nil) {
				return c.done()
			}
			if !c.require("source has a face-up top card", !srcPile.Empty() && srcPile.Top().FaceUp) {
				return c.done()
			}
			if !c.require("source and destination differ", a.Source != a.Dest) {
				return c.done()
			}
			card = srcPile.Top().Card
		}
		c.condition(rule.Condition, s, MoveContext{Source: []Card{card}, Dest: dst, SourcePile: srcPile})
		return c.done()

	case ActionMoveStack:
		rule := rules[ruleKey{kind: ActionMoveStack, src: a.Source.Category, dst: a.Dest.Category}]
		if !c.require(fmt.Sprintf("a stack move rule governs %s to %s", a.Source.Category, a.Dest.Category), rule != nil) {
			return c.done()
		}
		dst := s.Pile(a.Dest)
		if !c.require("destination "+a.Dest.String()+" exists", dst != nil) {
			return c.done()
		}
		src := s.Pile(a.Source)
		if !c.require("source "+a.Source.String()+" exists", src != nil) {
			return c.done()
		}
		if !c.require("source and destination differ", a.Source != a.Dest) {
			return c.done()
		}
		if !c.require("stack has at least 2 cards", a.From >= 0 && a.From <= src.Len()-2) {
			return c.done()
		}
		faceUp := true
		for _, slot := range src.Slots[a.From:] {
			faceUp = faceUp && slot.FaceUp
		}
		if !c.require("every card of the stack is face up", faceUp) {
			return c.done()
		}
		c.condition(rule.Condition, s, MoveContext{Source: src.Run(a.From), Dest: dst, SourcePile: src})
		return c.done()
	}

	c.require("action kind is known", false)
	return c.done()
}

// perform mutates the state for an action that already passed check
func perform(s *GameState, a Action) {
	switch a.Kind {
	case ActionDraw:
		s.Draw.draw(s)
	case ActionMove:
		var slot Slot
		if a.Source.IsDraw() {
			slot = Slot{Card: s.Draw.takeTop(), FaceUp: true}
		} else {
			src := s.Pile(a.Source)
			slot = src.take(src.Len() - 1)[0]
		}
		s.Pile(a.Dest).push(slot)
	case ActionMoveStack:
		run := s.Pile(a.Source).take(a.From)
		s.Pile(a.Dest).push(run...)
	}
}

// candidates lists every concrete instantiation of a rule in pile order
func candidates(s *GameState, r *Rule) []Action {
	var srcs []PileRef
	if r.Source == DrawCategory {
		if s.Draw != nil {
			srcs = append(srcs, PileRef{Category: DrawCategory})
		}
	} else {
		for i := range s.Piles[r.Source] {
			srcs = append(srcs, PileRef{Category: r.Source, Index: i})
		}
	}

	var out []Action
	for _, src := range srcs {
		for i := range s.Piles[r.Dest] {
			dst := PileRef{Category: r.Dest, Index: i}
			if src == dst {
				continue
			}
			if r.Kind == ActionMove {
				out = append(out, Move(src, dst))
				continue
			}
			for from := 0; from < s.Pile(src).Len()-1; from++ {
				out = append(out, MoveStack(src, from, dst))
			}
		}
	}
	return out
}
