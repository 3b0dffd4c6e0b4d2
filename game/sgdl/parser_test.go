package sgdl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

const baseDescription = `Test
# line numbers below are referenced by the error tests
$cards
DECK 2 {SPADES, HEARTS}

$initial
COLUMN 3
COLUMN 0
FOUNDATION 0

$moves
MOVE COLUMN COLUMN
    OR
        DEST Empty
        AND
            DESTSRC Suit match
            DESTSRC Rank descending

$win
PILE ALL {FOUNDATION} Size == 26
`

func variant(t *testing.T, old, new string) string {
	t.Helper()
	if !strings.Contains(baseDescription, old) {
		t.Fatalf("Base description has no %q", old)
	}
	return strings.Replace(baseDescription, old, new, 1)
}

func TestParseBase(t *testing.T) {
	r, err := Parse(baseDescription)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if r.Name != "Test" {
		t.Errorf("Expected name Test, got %q", r.Name)
	}
	if r.Deck.Size() != 52 {
		t.Errorf("Expected 52 cards, got %d", r.Deck.Size())
	}
	if len(r.Layout.Piles) != 3 || r.Layout.Draw != nil {
		t.Errorf("Unexpected layout %+v", r.Layout)
	}
	if r.Layout.Piles[0].Face != engine.FaceLast {
		t.Errorf("Expected FACE_LAST by default, got %s", r.Layout.Piles[0].Face)
	}
	if len(r.Moves) != 1 || r.Moves[0].Line != 12 {
		t.Fatalf("Expected one rule on line 12, got %+v", r.Moves)
	}
	cond := r.Moves[0].Condition
	if cond.Kind != engine.NodeOr || len(cond.Children) != 2 || cond.Children[1].Kind != engine.NodeAnd {
		t.Errorf("Unexpected condition tree:\n%s", cond)
	}
	if r.Win.Leaf == nil || r.Win.Leaf.Kind != engine.PileSize || r.Win.Leaf.N != 26 {
		t.Errorf("Unexpected win condition %s", r.Win)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  func(t *testing.T) string
		want  error
		line  int
		token string
	}{
		{
			name: "missing name",
			text: func(t *testing.T) string { return strings.TrimPrefix(baseDescription, "Test\n") },
			want: ErrGrammar, line: 2,
		},
		{
			name: "sections out of order",
			text: func(t *testing.T) string { return variant(t, "$cards\nDECK 2 {SPADES, HEARTS}\n", "") + "$cards\nDECK 1 {SPADES}\n" },
			want: ErrSectionOrder, line: 4,
		},
		{
			name: "missing win",
			text: func(t *testing.T) string { return variant(t, "$win\nPILE ALL {FOUNDATION} Size == 26\n", "") },
			want: ErrSectionOrder,
		},
		{
			name: "unknown section",
			text: func(t *testing.T) string { return variant(t, "$moves", "$rules") },
			want: ErrSectionOrder, line: 11, token: "$rules",
		},
		{
			name: "duplicate draw pile",
			text: func(t *testing.T) string {
				return variant(t, "COLUMN 3\n", "DRAW 5 ROTATE 1 1 U\nCOLUMN 3\nDRAW 5 ROTATE 1 1 U\n")
			},
			want: ErrDuplicateDraw, line: 9, token: "DRAW",
		},
		{
			name: "unknown destination",
			text: func(t *testing.T) string { return variant(t, "MOVE COLUMN COLUMN", "MOVE COLUMN TABLEAU") },
			want: ErrUnknownCategory, line: 12, token: "TABLEAU",
		},
		{
			name: "unknown deal target",
			text: func(t *testing.T) string { return variant(t, "COLUMN 3\n", "DRAW 5 DEAL {TABLEAU}\nCOLUMN 3\n") },
			want: ErrUnknownCategory, line: 7,
		},
		{
			name: "draw rule without draw pile",
			text: func(t *testing.T) string {
				return variant(t, "\n$win", "DRAW\n    PILE ALL {COLUMN} Size >= 1\n\n$win")
			},
			want: ErrUnknownCategory, line: 18, token: "DRAW",
		},
		{
			name: "layout larger than deck",
			text: func(t *testing.T) string { return variant(t, "COLUMN 3\n", "COLUMN 60\n") },
			want: ErrOversubscribed, line: 6,
		},
		{
			name: "explicit card missing from deck",
			text: func(t *testing.T) string { return variant(t, "COLUMN 0\n", "COLUMN 1 FACE_ALL {C1}\n") },
			want: ErrOversubscribed, line: 8,
		},
		{
			name: "explicit card used too often",
			text: func(t *testing.T) string { return variant(t, "COLUMN 0\n", "COLUMN 3 FACE_ALL {S1, S1, S1}\n") },
			want: ErrOversubscribed, line: 8,
		},
		{
			name: "invalid operator",
			text: func(t *testing.T) string { return variant(t, "Size == 26", "Size = 26") },
			want: ErrInvalidOperator, line: 20, token: "=",
		},
		{
			name: "invalid face policy",
			text: func(t *testing.T) string { return variant(t, "COLUMN 3\n", "COLUMN 3 FACE_DOWN\n") },
			want: ErrInvalidFacePolicy, line: 7, token: "FACE_DOWN",
		},
		{
			name: "invalid deck count",
			text: func(t *testing.T) string { return variant(t, "DECK 2", "DECK two") },
			want: ErrInvalidToken, line: 4, token: "two",
		},
		{
			name: "invalid suit",
			text: func(t *testing.T) string { return variant(t, "{SPADES, HEARTS}", "{SPADES, STARS}") },
			want: ErrInvalidToken, line: 4,
		},
		{
			name: "invalid card token",
			text: func(t *testing.T) string { return variant(t, "COLUMN 0\n", "COLUMN 1 {X9}\n") },
			want: ErrInvalidToken, line: 8,
		},
		{
			name: "duplicate rule",
			text: func(t *testing.T) string {
				return variant(t, "\n$win", "MOVE {FOUNDATION, COLUMN} COLUMN\n    DEST Empty\n\n$win")
			},
			want: ErrDuplicateRule, line: 18,
		},
		{
			name: "stack predicate in single card move",
			text: func(t *testing.T) string { return variant(t, "        DEST Empty", "        SRCSTACK Size == 2") },
			want: ErrPredicateContext, line: 14,
		},
		{
			name: "move predicate in win condition",
			text: func(t *testing.T) string { return variant(t, "PILE ALL {FOUNDATION} Size == 26", "DEST Empty") },
			want: ErrPredicateContext, line: 20,
		},
		{
			name: "rule without condition",
			text: func(t *testing.T) string { return variant(t, "\n$win", "MOVE COLUMN FOUNDATION\n\n$win") },
			want: ErrGrammar, line: 18,
		},
		{
			name: "inconsistent indentation",
			text: func(t *testing.T) string { return variant(t, "        AND", "          AND") },
			want: ErrGrammar, line: 15,
		},
		{
			name: "operator without children",
			text: func(t *testing.T) string { return variant(t, "PILE ALL {FOUNDATION} Size == 26", "AND") },
			want: ErrGrammar, line: 20,
		},
		{
			name: "card list shorter than count",
			text: func(t *testing.T) string { return variant(t, "COLUMN 0\n", "COLUMN 2 {S1}\n") },
			want: ErrGrammar, line: 8,
		},
		{
			name: "relation of the wrong attribute",
			text: func(t *testing.T) string { return variant(t, "DESTSRC Suit match", "DESTSRC Suit ascending") },
			want: ErrGrammar, line: 16, token: "ascending",
		},
		{
			name: "unexpected character",
			text: func(t *testing.T) string { return variant(t, "COLUMN 3\n", "COLUMN 3 @\n") },
			want: ErrGrammar, line: 7,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.text(t))
			if !errors.Is(err, test.want) {
				t.Fatalf("Expected %v, got %v", test.want, err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if test.line != 0 && pe.Line != test.line {
				t.Errorf("Expected line %d, got %d (%v)", test.line, pe.Line, err)
			}
			if test.token != "" && pe.Token != test.token {
				t.Errorf("Expected token %q, got %q (%v)", test.token, pe.Token, err)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse(variant(t, "MOVE COLUMN COLUMN", "MOVE COLUMN TABLEAU"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if pe.Column != 13 {
		t.Errorf("Expected column 13, got %d", pe.Column)
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "line 12:13: ") || !strings.Contains(msg, `near "TABLEAU"`) {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestParseRuleExpansion(t *testing.T) {
	text := variant(t, "MOVE COLUMN COLUMN", "MOVE {COLUMN, FOUNDATION} {COLUMN, FOUNDATION}")
	r, err := Parse(text)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	want := []string{"COLUMN>COLUMN", "COLUMN>FOUNDATION", "FOUNDATION>COLUMN", "FOUNDATION>FOUNDATION"}
	if len(r.Moves) != len(want) {
		t.Fatalf("Expected %d rules, got %d", len(want), len(r.Moves))
	}
	for i, rule := range r.Moves {
		if got := rule.Source + ">" + rule.Dest; got != want[i] {
			t.Errorf("Rule %d: expected %s, got %s", i, want[i], got)
		}
		if rule.Condition != r.Moves[0].Condition {
			t.Errorf("Rule %d: expected the shared condition", i)
		}
	}
}

func TestParseDrawPiles(t *testing.T) {
	rotate, err := Parse(variant(t, "COLUMN 3\n", "COLUMN 3\nDRAW 20 ROTATE 3 U 2\n"))
	if err != nil {
		t.Fatalf("Failed to parse rotate pile: %v", err)
	}
	d := rotate.Layout.Draw
	if d.Mode != engine.DrawRotate || d.Count != 20 || d.DrawCount != 3 || d.ViewCount != engine.Unlimited || d.MaxRedeals != 2 {
		t.Errorf("Unexpected rotate spec %+v", d)
	}

	deal, err := Parse(variant(t, "COLUMN 3\n", "DRAW 10 DEAL {COLUMN, FOUNDATION}\nCOLUMN 3\n"))
	if err != nil {
		t.Fatalf("Failed to parse deal pile: %v", err)
	}
	if deal.Layout.Draw.Mode != engine.DrawDeal || len(deal.Layout.Draw.Targets) != 2 {
		t.Errorf("Unexpected deal spec %+v", deal.Layout.Draw)
	}

	if _, err := Parse(variant(t, "COLUMN 3\n", "DRAW 10 SHUFFLE\nCOLUMN 3\n")); !errors.Is(err, ErrGrammar) {
		t.Errorf("Expected ErrGrammar for an unknown draw mode, got %v", err)
	}
	if _, err := Parse(variant(t, "COLUMN 3\n", "DRAW 10 ROTATE 0 1 U\nCOLUMN 3\n")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for a zero draw count, got %v", err)
	}
}

func TestParseComments(t *testing.T) {
	text := "# leading comment\n\n" + variant(t, "COLUMN 0\n", "COLUMN 0 # an empty column\n\n   # indented comment\n")
	r, err := Parse(text)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if r.Name != "Test" || len(r.Layout.Piles) != 3 {
		t.Errorf("Unexpected rules %s with %d piles", r.Name, len(r.Layout.Piles))
	}
}

func gameFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "..", "games", "*.sgdl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("No game descriptions found")
	}
	return files
}

func TestBundledGames(t *testing.T) {
	for _, path := range gameFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			g, err := Load(string(data), 1)
			if err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			if len(g.Actions()) == 0 {
				t.Error("Expected at least one legal action after the deal")
			}
			if g.Won() {
				t.Error("A fresh deal should not be won")
			}
			if got, want := g.State().CardCount(), g.Engine().Rules().Deck.Size(); got != want {
				t.Errorf("Expected %d cards, got %d", want, got)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, path := range gameFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			r, err := Parse(string(data))
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			text := Format(r)
			again, err := Parse(text)
			if err != nil {
				t.Fatalf("Formatted description does not parse: %v\n%s", err, text)
			}
			if Format(again) != text {
				t.Errorf("Format is not stable:\n%s\n---\n%s", text, Format(again))
			}
			if len(again.Moves) != len(r.Moves) || len(again.Auto) != len(r.Auto) {
				t.Errorf("Rule counts changed: %d/%d moves, %d/%d auto", len(r.Moves), len(again.Moves), len(r.Auto), len(again.Auto))
			}
		})
	}
}
