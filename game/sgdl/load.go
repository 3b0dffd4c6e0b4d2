package sgdl

import (
	"fmt"
	"strings"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// Load parses the description and deals a game from the seed
func Load(text string, seed int64, opts ...engine.Option) (*engine.Game, error) {
	rules, err := Parse(text)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(rules, opts...)
	if err != nil {
		return nil, err
	}
	return engine.NewGame(eng, seed)
}

// Format renders a rule set back into description text
func Format(r *engine.Rules) string {
	var b strings.Builder
	b.WriteString(r.Name + "\n\n$cards\n")
	suits := make([]string, len(r.Deck.Suits))
	for i, s := range r.Deck.Suits {
		suits[i] = s.Name()
	}
	fmt.Fprintf(&b, "DECK %d {%s}\n\n$initial\n", r.Deck.Count, strings.Join(suits, ", "))

	if d := r.Layout.Draw; d != nil {
		if d.Mode == engine.DrawDeal {
			fmt.Fprintf(&b, "DRAW %d DEAL {%s}\n", d.Count, strings.Join(d.Targets, ", "))
		} else {
			fmt.Fprintf(&b, "DRAW %d ROTATE %d %s %s\n", d.Count, d.DrawCount, limitText(d.ViewCount), limitText(d.MaxRedeals))
		}
	}
	for _, p := range r.Layout.Piles {
		fmt.Fprintf(&b, "%s %d %s", p.Category, p.Count, p.Face)
		if p.Cards != nil {
			cards := make([]string, len(p.Cards))
			for i, c := range p.Cards {
				cards[i] = c.String()
			}
			fmt.Fprintf(&b, " {%s}", strings.Join(cards, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n$moves\n")
	writeRules(&b, r.Moves)
	if r.Draw != nil {
		b.WriteString("DRAW\n" + indent(r.Draw.String()) + "\n")
	}
	if len(r.Auto) > 0 {
		b.WriteString("\n$auto\n")
		writeRules(&b, r.Auto)
	}
	b.WriteString("\n$win\n" + r.Win.String() + "\n")
	return b.String()
}

func writeRules(b *strings.Builder, rules []engine.Rule) {
	for _, rule := range rules {
		header := "MOVE"
		if rule.Kind == engine.ActionMoveStack {
			header = "MOVE_STACK"
		}
		fmt.Fprintf(b, "%s %s %s\n%s\n", header, rule.Source, rule.Dest, indent(rule.Condition.String()))
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func limitText(n int) string {
	if n == engine.Unlimited {
		return "U"
	}
	return fmt.Sprint(n)
}
