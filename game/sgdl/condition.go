package sgdl

import (
	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// condParser reads one condition tree. AND and OR stand alone on their line
// and own every following line indented deeper than themselves.
type condParser struct {
	lines []srcLine
	pos   int
	scope engine.Scope
	p     *parser
}

func (c *condParser) node() (*engine.Condition, error) {
	ln := c.lines[c.pos]
	c.pos++

	if ln.is("AND") || ln.is("OR") {
		if len(ln.words) != 1 {
			return nil, ln.errAt(1, ErrGrammar, "AND or OR alone on its line")
		}
		node := &engine.Condition{Kind: engine.NodeAnd, Line: ln.num}
		if ln.is("OR") {
			node.Kind = engine.NodeOr
		}
		childIndent := -1
		for c.pos < len(c.lines) && c.lines[c.pos].indent > ln.indent {
			next := c.lines[c.pos]
			if childIndent < 0 {
				childIndent = next.indent
			} else if next.indent != childIndent {
				return nil, next.errAt(0, ErrGrammar, "consistent indentation of AND/OR children")
			}
			if isRuleHeader(next) {
				return nil, next.errAt(0, ErrGrammar, "a condition, not a rule header")
			}
			child, err := c.node()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		if len(node.Children) == 0 {
			return nil, ln.errAt(0, ErrGrammar, "at least one indented condition below "+ln.words[0].Atom)
		}
		return node, nil
	}

	pred, err := c.predicate(ln)
	if err != nil {
		return nil, err
	}
	if pred.Kind.Scope()&c.scope == 0 {
		return nil, ln.errAt(0, ErrPredicateContext, c.scopeText())
	}
	return &engine.Condition{Kind: engine.NodeLeaf, Leaf: pred, Line: ln.num}, nil
}

func (c *condParser) scopeText() string {
	switch c.scope {
	case engine.ScopeMove:
		return "DEST, SRC, DESTSRC or PILE predicates in a MOVE rule"
	case engine.ScopeStack:
		return "DEST, SRC, DESTSRC, SRCSTACK or PILE predicates in a MOVE_STACK rule"
	}
	return "PILE predicates in draw and win conditions"
}

func (c *condParser) predicate(ln srcLine) (*engine.Predicate, error) {
	if len(ln.words) < 2 {
		return nil, ln.errAt(1, ErrGrammar, "a predicate such as DEST Empty")
	}
	subject, attr := ln.words[0].Atom, ln.words[1].Atom
	pred := &engine.Predicate{}

	switch subject {
	case "DEST":
		switch attr {
		case "Empty":
			pred.Kind = engine.DestEmpty
			return pred, arity(ln, 2)
		case "Size":
			pred.Kind = engine.DestSize
			return pred, comparison(ln, 2, pred)
		}
		return nil, ln.errAt(1, ErrGrammar, "Empty or Size")

	case "SRC":
		if err := arity(ln, 3); err != nil {
			return nil, err
		}
		switch attr {
		case "Suit":
			pred.Kind = engine.SrcSuit
			for _, item := range ln.words[2].items() {
				suit, ok := engine.ParseSuitName(item)
				if !ok {
					return nil, ln.errAt(2, ErrInvalidToken, "suits among SPADES, HEARTS, CLUBS, DIAMONDS")
				}
				pred.Suits = append(pred.Suits, suit)
			}
		case "Rank":
			pred.Kind = engine.SrcRank
			for _, item := range ln.words[2].items() {
				rank, ok := engine.ParseRank(item)
				if !ok {
					return nil, ln.errAt(2, ErrInvalidToken, "ranks 1..10, J, Q or K")
				}
				pred.Ranks = append(pred.Ranks, rank)
			}
		default:
			return nil, ln.errAt(1, ErrGrammar, "Suit or Rank")
		}
		if len(pred.Suits)+len(pred.Ranks) == 0 {
			return nil, ln.errAt(2, ErrGrammar, "a non-empty list")
		}
		return pred, nil

	case "DESTSRC", "SRCSTACK":
		stack := subject == "SRCSTACK"
		switch attr {
		case "Suit", "Rank":
			if err := arity(ln, 3); err != nil {
				return nil, err
			}
			rel, ok := engine.ParseRelation(ln.words[2].Atom)
			if !ok || rel.IsSuit() != (attr == "Suit") {
				if attr == "Suit" {
					return nil, ln.errAt(2, ErrGrammar, "alternate_color, match_color or match")
				}
				return nil, ln.errAt(2, ErrGrammar, "ascending or descending")
			}
			pred.Relation = rel
			switch {
			case stack && attr == "Suit":
				pred.Kind = engine.StackSuit
			case stack:
				pred.Kind = engine.StackRank
			case attr == "Suit":
				pred.Kind = engine.DestSrcSuit
			default:
				pred.Kind = engine.DestSrcRank
			}
			return pred, nil
		case "Size":
			if stack {
				pred.Kind = engine.StackSize
				return pred, comparison(ln, 2, pred)
			}
		}
		if stack {
			return nil, ln.errAt(1, ErrGrammar, "Suit, Rank or Size")
		}
		return nil, ln.errAt(1, ErrGrammar, "Suit or Rank")

	case "PILE":
		switch attr {
		case "ALL":
			pred.Quant = engine.QuantAll
		case "ANY":
			pred.Quant = engine.QuantAny
		default:
			return nil, ln.errAt(1, ErrGrammar, "ALL or ANY")
		}
		if len(ln.words) < 4 {
			return nil, ln.errAt(len(ln.words), ErrGrammar, "PILE ALL|ANY {CATEGORIES} Empty|Size <op> <n>")
		}
		for _, cat := range ln.words[2].items() {
			ok := c.p.declared[cat] || (cat == engine.DrawCategory && c.p.hasDraw())
			if !ok {
				return nil, ln.errAt(2, ErrUnknownCategory, "categories declared in $initial")
			}
			pred.Categories = append(pred.Categories, cat)
		}
		switch ln.words[3].Atom {
		case "Empty":
			pred.Kind = engine.PileEmpty
			return pred, arity(ln, 4)
		case "Size":
			pred.Kind = engine.PileSize
			return pred, comparison(ln, 4, pred)
		}
		return nil, ln.errAt(3, ErrGrammar, "Empty or Size")
	}
	return nil, ln.errAt(0, ErrGrammar, "DEST, SRC, DESTSRC, SRCSTACK, PILE, AND or OR")
}

func arity(ln srcLine, n int) error {
	if len(ln.words) > n {
		return ln.errAt(n, ErrGrammar, "end of line")
	}
	if len(ln.words) < n {
		return ln.errAt(len(ln.words), ErrGrammar, "more operands")
	}
	return nil
}

// comparison reads "<op> <n>" starting at word i
func comparison(ln srcLine, i int, pred *engine.Predicate) error {
	if err := arity(ln, i+2); err != nil {
		return err
	}
	w := ln.words[i]
	op, ok := engine.ParseOp(w.Op)
	if w.Op == "" || !ok {
		return ln.errAt(i, ErrInvalidOperator, "one of ==, !=, <, <=, >, >=")
	}
	n, err := number(ln, i+1)
	if err != nil {
		return err
	}
	pred.Op = op
	pred.N = n
	return nil
}
