package engine

// MoveContext carries the cards being moved and the piles involved. Source is a
// single card for a move and the whole run, bottom first, for a stack move. It
// is empty when evaluating draw and win conditions.
type MoveContext struct {
	Source     []Card
	Dest       *Pile
	SourcePile *Pile
}

// Evaluate judges the condition against the state without mutating anything.
// Every node is evaluated so the trace records each child's own value.
func Evaluate(c *Condition, s *GameState, ctx MoveContext) (bool, *Trace) {
	switch c.Kind {
	case NodeAnd, NodeOr:
		t := &Trace{Description: "At least one of the following should be true"}
		if c.Kind == NodeAnd {
			t.Description = "All of the following should be true"
		}
		result := c.Kind == NodeAnd
		for _, child := range c.Children {
			ok, ct := Evaluate(child, s, ctx)
			t.Children = append(t.Children, ct)
			if c.Kind == NodeAnd {
				result = result && ok
			} else {
				result = result || ok
			}
		}
		t.Result = result
		return result, t
	default:
		ok := evalPredicate(c.Leaf, s, ctx)
		return ok, &Trace{Description: c.Leaf.Describe(), Result: ok}
	}
}

func evalPredicate(p *Predicate, s *GameState, ctx MoveContext) bool {
	switch p.Kind {
	case DestEmpty:
		return ctx.Dest != nil && ctx.Dest.Empty()
	case DestSize:
		return ctx.Dest != nil && p.Op.Compare(ctx.Dest.Len(), p.N)
	case SrcSuit:
		if len(ctx.Source) == 0 {
			return false
		}
		for _, suit := range p.Suits {
			if ctx.Source[0].Suit == suit {
				return true
			}
		}
		return false
	case SrcRank:
		if len(ctx.Source) == 0 {
			return false
		}
		for _, rank := range p.Ranks {
			if ctx.Source[0].Rank == rank {
				return true
			}
		}
		return false
	case DestSrcSuit, DestSrcRank:
		if len(ctx.Source) == 0 || ctx.Dest == nil || ctx.Dest.Empty() {
			return false
		}
		return p.Relation.Holds(ctx.Dest.Top().Card, ctx.Source[0])
	case StackSuit, StackRank:
		if len(ctx.Source) == 0 {
			return false
		}
		for i := 1; i < len(ctx.Source); i++ {
			if !p.Relation.Holds(ctx.Source[i-1], ctx.Source[i]) {
				return false
			}
		}
		return true
	case StackSize:
		return p.Op.Compare(len(ctx.Source), p.N)
	case PileEmpty, PileSize:
		return evalPile(p, s)
	}
	return false
}

func evalPile(p *Predicate, s *GameState) bool {
	holds := func(n int) bool {
		if p.Kind == PileEmpty {
			return n == 0
		}
		return p.Op.Compare(n, p.N)
	}
	anyOK, allOK := false, true
	for _, cat := range p.Categories {
		if cat == DrawCategory {
			if s.Draw == nil {
				continue
			}
			ok := holds(s.Draw.Len())
			anyOK = anyOK || ok
			allOK = allOK && ok
			continue
		}
		for _, pile := range s.Piles[cat] {
			ok := holds(pile.Len())
			anyOK = anyOK || ok
			allOK = allOK && ok
		}
	}
	if p.Quant == QuantAny {
		return anyOK
	}
	return allOK
}
