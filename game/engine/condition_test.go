package engine

import (
	"strings"
	"testing"
)

func leaf(kind PredicateKind) *Condition {
	return Leaf(Predicate{Kind: kind})
}

func relation(kind PredicateKind, r Relation) *Condition {
	return Leaf(Predicate{Kind: kind, Relation: r})
}

func sized(kind PredicateKind, op Op, n int) *Condition {
	return Leaf(Predicate{Kind: kind, Op: op, N: n})
}

func pileCond(kind PredicateKind, q Quantifier, op Op, n int, cats ...string) *Condition {
	return Leaf(Predicate{Kind: kind, Quant: q, Op: op, N: n, Categories: cats})
}

func columns(piles ...*Pile) *GameState {
	return &GameState{
		Name:       "test",
		Categories: []string{"COLUMN"},
		Piles:      map[string][]*Pile{"COLUMN": piles},
	}
}

// matchDescending is the classic "empty or same suit one lower" rule
func matchDescending() *Condition {
	return Or(
		leaf(DestEmpty),
		And(
			relation(DestSrcSuit, RelMatch),
			relation(DestSrcRank, RelDescending),
		),
	)
}

func TestEvaluateMatchDescending(t *testing.T) {
	tests := []struct {
		name   string
		source string
		dest   []string
		want   bool
	}{
		{"onto empty pile", "S5", nil, true},
		{"same suit one lower", "S4", []string{"S5"}, true},
		{"different suit", "S4", []string{"H6"}, false},
		{"different suit one lower", "S4", []string{"H5"}, false},
		{"same suit one higher", "S6", []string{"S5"}, false},
		{"same suit two lower", "S3", []string{"S5"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dest := upPile(t, "COLUMN", 1, test.dest...)
			s := columns(upPile(t, "COLUMN", 0, test.source), dest)
			ctx := MoveContext{Source: mustCards(t, test.source), Dest: dest}
			got, trace := Evaluate(matchDescending(), s, ctx)
			if got != test.want {
				t.Errorf("Expected %v, got %v\n%s", test.want, got, trace.Render())
			}
			if trace.Result != got {
				t.Errorf("Trace root result %v disagrees with verdict %v", trace.Result, got)
			}
		})
	}
}

func TestEvaluateTraceRecordsEveryChild(t *testing.T) {
	dest := upPile(t, "COLUMN", 1)
	s := columns(upPile(t, "COLUMN", 0, "S5"), dest)
	cond := And(
		leaf(DestEmpty),
		relation(DestSrcRank, RelDescending),
		sized(DestSize, OpEq, 0),
	)

	ok, trace := Evaluate(cond, s, MoveContext{Source: mustCards(t, "S5"), Dest: dest})
	if ok {
		t.Fatal("Expected AND with a false child to be false")
	}
	if len(trace.Children) != 3 {
		t.Fatalf("Expected 3 child traces, got %d", len(trace.Children))
	}
	want := []bool{true, false, true}
	for i, w := range want {
		if trace.Children[i].Result != w {
			t.Errorf("Child %d: expected %v, got %v", i, w, trace.Children[i].Result)
		}
	}
}

func TestDestSrcFalseOnEmptyDestination(t *testing.T) {
	dest := upPile(t, "COLUMN", 1)
	s := columns(upPile(t, "COLUMN", 0, "S5"), dest)
	for _, cond := range []*Condition{
		relation(DestSrcSuit, RelMatch),
		relation(DestSrcSuit, RelAlternateColor),
		relation(DestSrcSuit, RelMatchColor),
		relation(DestSrcRank, RelAscending),
		relation(DestSrcRank, RelDescending),
	} {
		if ok, _ := Evaluate(cond, s, MoveContext{Source: mustCards(t, "S5"), Dest: dest}); ok {
			t.Errorf("%s: expected false on an empty destination", cond.Leaf)
		}
	}
}

func TestRelations(t *testing.T) {
	tests := []struct {
		rel        Relation
		prev, next string
		want       bool
	}{
		{RelMatch, "S5", "S4", true},
		{RelMatch, "S5", "C4", false},
		{RelMatchColor, "S5", "C4", true},
		{RelMatchColor, "S5", "H4", false},
		{RelAlternateColor, "S5", "H4", true},
		{RelAlternateColor, "D5", "H4", false},
		{RelAscending, "H5", "S6", true},
		{RelAscending, "H5", "S7", false},
		{RelAscending, "HK", "S1", false},
		{RelDescending, "H5", "S4", true},
		{RelDescending, "H5", "S5", false},
		{RelDescending, "S1", "SK", false},
	}
	for _, test := range tests {
		c := mustCards(t, test.prev, test.next)
		if got := test.rel.Holds(c[0], c[1]); got != test.want {
			t.Errorf("%s(%s, %s) = %v, want %v", test.rel, test.prev, test.next, got, test.want)
		}
	}
}

func TestStackPredicates(t *testing.T) {
	tests := []struct {
		name  string
		cond  *Condition
		stack []string
		want  bool
	}{
		{"descending run", relation(StackRank, RelDescending), []string{"S9", "H8", "S7"}, true},
		{"gap in run", relation(StackRank, RelDescending), []string{"S9", "H7"}, false},
		{"alternating colors", relation(StackSuit, RelAlternateColor), []string{"S9", "H8", "C7"}, true},
		{"broken alternation", relation(StackSuit, RelAlternateColor), []string{"S9", "H8", "D7"}, false},
		{"same suit", relation(StackSuit, RelMatch), []string{"S9", "S8"}, true},
		{"size equals", sized(StackSize, OpEq, 3), []string{"S9", "S8", "S7"}, true},
		{"size at most", sized(StackSize, OpLe, 2), []string{"S9", "S8", "S7"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, _ := Evaluate(test.cond, columns(), MoveContext{Source: mustCards(t, test.stack...)})
			if ok != test.want {
				t.Errorf("Expected %v, got %v", test.want, ok)
			}
		})
	}
}

func TestSourcePredicates(t *testing.T) {
	src := mustCards(t, "HQ")
	suit := Leaf(Predicate{Kind: SrcSuit, Suits: []Suit{Diamonds, Hearts}})
	if ok, _ := Evaluate(suit, columns(), MoveContext{Source: src}); !ok {
		t.Error("Expected HQ to match {DIAMONDS, HEARTS}")
	}
	rank := Leaf(Predicate{Kind: SrcRank, Ranks: []Rank{Ace, King}})
	if ok, _ := Evaluate(rank, columns(), MoveContext{Source: src}); ok {
		t.Error("Expected HQ not to match {1, K}")
	}
}

func TestPilePredicates(t *testing.T) {
	s := &GameState{
		Categories: []string{"FOUNDATION", "COLUMN"},
		Piles: map[string][]*Pile{
			"FOUNDATION": {upPile(t, "FOUNDATION", 0, "S1", "S2"), upPile(t, "FOUNDATION", 1)},
			"COLUMN":     {upPile(t, "COLUMN", 0)},
		},
		Draw: &DrawPile{Mode: DrawRotate, Backing: mustCards(t, "H1"), DrawCount: 1, ViewCount: Unlimited, MaxRedeals: Unlimited},
	}
	tests := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"all foundations empty", pileCond(PileEmpty, QuantAll, 0, 0, "FOUNDATION"), false},
		{"any foundation empty", pileCond(PileEmpty, QuantAny, 0, 0, "FOUNDATION"), true},
		{"all columns empty", pileCond(PileEmpty, QuantAll, 0, 0, "COLUMN"), true},
		{"any foundation size 2", pileCond(PileSize, QuantAny, OpEq, 2, "FOUNDATION"), true},
		{"all foundation size 2", pileCond(PileSize, QuantAll, OpEq, 2, "FOUNDATION"), false},
		{"draw pile not empty", pileCond(PileEmpty, QuantAll, 0, 0, "DRAW"), false},
		{"columns and draw", pileCond(PileSize, QuantAll, OpLe, 1, "COLUMN", "DRAW"), true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if ok, _ := Evaluate(test.cond, s, MoveContext{}); ok != test.want {
				t.Errorf("Expected %v, got %v", test.want, ok)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	for _, text := range []string{"==", "!=", "<", "<=", ">", ">="} {
		op, ok := ParseOp(text)
		if !ok || op.String() != text {
			t.Errorf("ParseOp(%q) = %v, %v", text, op, ok)
		}
	}
	for _, bad := range []string{"=", "=>", "<>", "==="} {
		if _, ok := ParseOp(bad); ok {
			t.Errorf("ParseOp(%q) expected to fail", bad)
		}
	}
	if !OpNe.Compare(1, 2) || OpGt.Compare(2, 2) || !OpGe.Compare(2, 2) {
		t.Error("Unexpected comparison result")
	}
}

func TestTraceRender(t *testing.T) {
	dest := upPile(t, "COLUMN", 1, "H6")
	s := columns(upPile(t, "COLUMN", 0, "S4"), dest)
	_, trace := Evaluate(matchDescending(), s, MoveContext{Source: mustCards(t, "S4"), Dest: dest})

	out := trace.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "At least one of the following should be true [F]") {
		t.Errorf("Unexpected root line %q", lines[0])
	}
	if lines[1] != "    1. destination should be empty [F]" {
		t.Errorf("Unexpected first child %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "        2.1. ") || !strings.HasSuffix(lines[3], "[F]") {
		t.Errorf("Unexpected nested line %q", lines[3])
	}

	failed := trace.Failed()
	if len(failed) != 3 {
		t.Errorf("Expected 3 failed leaves, got %v", failed)
	}
}

func TestConditionString(t *testing.T) {
	want := "OR\n    DEST Empty\n    AND\n        DESTSRC Suit match\n        DESTSRC Rank descending"
	if got := matchDescending().String(); got != want {
		t.Errorf("Unexpected rendering:\n%s", got)
	}
}
