package engine

import (
	"fmt"
	"strings"
)

// NodeKind tags a condition node
type NodeKind uint8

const (
	NodeLeaf NodeKind = iota
	NodeAnd
	NodeOr
)

// Condition is an immutable condition tree node: either a leaf predicate or an
// AND/OR over ordered children.
type Condition struct {
	Kind     NodeKind     `json:"kind"`
	Leaf     *Predicate   `json:"leaf,omitempty"`
	Children []*Condition `json:"children,omitempty"`
	Line     int          `json:"line,omitempty"`
}

// And builds an AND node
func And(children ...*Condition) *Condition {
	return &Condition{Kind: NodeAnd, Children: children}
}

// Or builds an OR node
func Or(children ...*Condition) *Condition {
	return &Condition{Kind: NodeOr, Children: children}
}

// Leaf wraps a predicate into a node
func Leaf(p Predicate) *Condition {
	return &Condition{Kind: NodeLeaf, Leaf: &p}
}

// Walk visits every predicate of the tree in order
func (c *Condition) Walk(fn func(*Predicate)) {
	if c == nil {
		return
	}
	if c.Kind == NodeLeaf {
		fn(c.Leaf)
		return
	}
	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// PredicateKind enumerates the leaf predicates
type PredicateKind uint8

const (
	DestEmpty PredicateKind = iota
	DestSize
	SrcSuit
	SrcRank
	DestSrcSuit
	DestSrcRank
	StackSuit
	StackRank
	StackSize
	PileEmpty
	PileSize
)

// Scope is the set of evaluation contexts a predicate makes sense in
type Scope uint8

const (
	ScopeMove Scope = 1 << iota
	ScopeStack
	ScopeGeneral
)

// Scope returns where the predicate may be used. PILE predicates only look at
// the state and are accepted everywhere.
func (k PredicateKind) Scope() Scope {
	switch k {
	case StackSuit, StackRank, StackSize:
		return ScopeStack
	case PileEmpty, PileSize:
		return ScopeMove | ScopeStack | ScopeGeneral
	}
	return ScopeMove | ScopeStack
}

// Op is a numeric comparison operator
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var opText = map[Op]string{OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">="}

func (o Op) String() string {
	return opText[o]
}

// ParseOp accepts ==, !=, <, <=, > and >=
func ParseOp(s string) (Op, bool) {
	for op, text := range opText {
		if text == s {
			return op, true
		}
	}
	return 0, false
}

// Compare applies the operator to v and n
func (o Op) Compare(v, n int) bool {
	switch o {
	case OpEq:
		return v == n
	case OpNe:
		return v != n
	case OpLt:
		return v < n
	case OpLe:
		return v <= n
	case OpGt:
		return v > n
	case OpGe:
		return v >= n
	}
	return false
}

func (o Op) describe() string {
	switch o {
	case OpEq:
		return "equal to"
	case OpNe:
		return "not equal to"
	case OpLt:
		return "less than"
	case OpLe:
		return "less than or equal to"
	case OpGt:
		return "greater than"
	case OpGe:
		return "greater than or equal to"
	}
	return "?"
}

// Relation is a pairwise relation between two cards
type Relation uint8

const (
	RelMatch Relation = iota
	RelMatchColor
	RelAlternateColor
	RelAscending
	RelDescending
)

var relationText = map[Relation]string{
	RelMatch:          "match",
	RelMatchColor:     "match_color",
	RelAlternateColor: "alternate_color",
	RelAscending:      "ascending",
	RelDescending:     "descending",
}

func (r Relation) String() string {
	return relationText[r]
}

// ParseRelation parses a relation token
func ParseRelation(s string) (Relation, bool) {
	for rel, text := range relationText {
		if text == s {
			return rel, true
		}
	}
	return 0, false
}

// IsSuit reports whether the relation compares suits rather than ranks
func (r Relation) IsSuit() bool {
	return r == RelMatch || r == RelMatchColor || r == RelAlternateColor
}

// Holds reports whether next may sit directly on top of prev
func (r Relation) Holds(prev, next Card) bool {
	switch r {
	case RelMatch:
		return prev.Suit == next.Suit
	case RelMatchColor:
		return prev.Color() == next.Color()
	case RelAlternateColor:
		return prev.Color() != next.Color()
	case RelAscending:
		return next.Rank == prev.Rank+1
	case RelDescending:
		return next.Rank+1 == prev.Rank
	}
	return false
}

func (r Relation) describe() string {
	switch r {
	case RelMatch:
		return "matching suits"
	case RelMatchColor:
		return "matching suit colors"
	case RelAlternateColor:
		return "alternating suit colors"
	case RelAscending:
		return "consecutive ascending ranks"
	case RelDescending:
		return "consecutive descending ranks"
	}
	return "?"
}

// Quantifier selects ALL or ANY over the piles of a PILE predicate
type Quantifier uint8

const (
	QuantAll Quantifier = iota
	QuantAny
)

func (q Quantifier) String() string {
	if q == QuantAny {
		return "ANY"
	}
	return "ALL"
}

// Predicate is a leaf condition. Only the operands relevant to Kind are set.
type Predicate struct {
	Kind       PredicateKind `json:"kind"`
	Op         Op            `json:"op,omitempty"`
	N          int           `json:"n,omitempty"`
	Suits      []Suit        `json:"suits,omitempty"`
	Ranks      []Rank        `json:"ranks,omitempty"`
	Relation   Relation      `json:"relation,omitempty"`
	Quant      Quantifier    `json:"quant,omitempty"`
	Categories []string      `json:"categories,omitempty"`
}

// String renders the predicate in description syntax
func (p Predicate) String() string {
	switch p.Kind {
	case DestEmpty:
		return "DEST Empty"
	case DestSize:
		return fmt.Sprintf("DEST Size %s %d", p.Op, p.N)
	case SrcSuit:
		names := make([]string, len(p.Suits))
		for i, s := range p.Suits {
			names[i] = s.Name()
		}
		return "SRC Suit {" + strings.Join(names, ", ") + "}"
	case SrcRank:
		return "SRC Rank {" + joinRanks(p.Ranks) + "}"
	case DestSrcSuit:
		return "DESTSRC Suit " + p.Relation.String()
	case DestSrcRank:
		return "DESTSRC Rank " + p.Relation.String()
	case StackSuit:
		return "SRCSTACK Suit " + p.Relation.String()
	case StackRank:
		return "SRCSTACK Rank " + p.Relation.String()
	case StackSize:
		return fmt.Sprintf("SRCSTACK Size %s %d", p.Op, p.N)
	case PileEmpty:
		return fmt.Sprintf("PILE %s {%s} Empty", p.Quant, strings.Join(p.Categories, ", "))
	case PileSize:
		return fmt.Sprintf("PILE %s {%s} Size %s %d", p.Quant, strings.Join(p.Categories, ", "), p.Op, p.N)
	}
	return "?"
}

// Describe returns the human readable statement shown in traces
func (p Predicate) Describe() string {
	switch p.Kind {
	case DestEmpty:
		return "destination should be empty"
	case DestSize:
		return fmt.Sprintf("destination should have a size %s %d", p.Op.describe(), p.N)
	case SrcSuit:
		if len(p.Suits) == 1 {
			return "source should have suit " + p.Suits[0].Name()
		}
		names := make([]string, len(p.Suits))
		for i, s := range p.Suits {
			names[i] = s.Name()
		}
		return "source should have one of the suits {" + strings.Join(names, ", ") + "}"
	case SrcRank:
		if len(p.Ranks) == 1 {
			return "source should have rank " + p.Ranks[0].String()
		}
		return "source should have one of the ranks {" + joinRanks(p.Ranks) + "}"
	case DestSrcSuit, DestSrcRank:
		return "top card of destination and source card should have " + p.Relation.describe()
	case StackSuit, StackRank:
		return "cards in the stack should have " + p.Relation.describe()
	case StackSize:
		return fmt.Sprintf("stack should have a size %s %d", p.Op.describe(), p.N)
	case PileEmpty:
		return fmt.Sprintf("%s of the piles {%s} should be empty", quantText(p.Quant), strings.Join(p.Categories, ", "))
	case PileSize:
		return fmt.Sprintf("%s of the piles {%s} should have a size %s %d", quantText(p.Quant), strings.Join(p.Categories, ", "), p.Op.describe(), p.N)
	}
	return "?"
}

func quantText(q Quantifier) string {
	if q == QuantAny {
		return "any"
	}
	return "all"
}

func joinRanks(ranks []Rank) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// String renders the tree in description syntax with four-space indentation
func (c *Condition) String() string {
	var b strings.Builder
	c.write(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (c *Condition) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
	switch c.Kind {
	case NodeAnd:
		b.WriteString("AND\n")
	case NodeOr:
		b.WriteString("OR\n")
	default:
		b.WriteString(c.Leaf.String() + "\n")
		return
	}
	for _, child := range c.Children {
		child.write(b, depth+1)
	}
}
