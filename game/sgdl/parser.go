package sgdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

var sectionOrder = []string{"$cards", "$initial", "$moves", "$auto", "$win"}

// Parse turns description text into a validated rule set. Every load-time
// problem is reported as a *ParseError carrying the line and token.
func Parse(text string) (*engine.Rules, error) {
	name, lines, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	sections, err := splitSections(lines)
	if err != nil {
		return nil, err
	}

	p := &parser{
		rules:    &engine.Rules{Name: name},
		declared: make(map[string]bool),
	}
	if err := p.cards(sections["$cards"]); err != nil {
		return nil, err
	}
	if err := p.initial(sections["$initial"]); err != nil {
		return nil, err
	}
	if err := p.moves(sections["$moves"], false); err != nil {
		return nil, err
	}
	if body, ok := sections["$auto"]; ok {
		if err := p.moves(body, true); err != nil {
			return nil, err
		}
	}
	if err := p.win(sections["$win"]); err != nil {
		return nil, err
	}

	if err := engine.ValidateRules(p.rules); err != nil {
		return nil, &ParseError{Line: 0, Column: 0, Err: err}
	}
	return p.rules, nil
}

type section struct {
	header srcLine
	body   []srcLine
}

func splitSections(lines []srcLine) (map[string]section, error) {
	sections := make(map[string]section)
	var current string
	last := -1
	for _, ln := range lines {
		first := ln.words[0]
		if first.List == nil && strings.HasPrefix(first.Atom, "$") {
			idx := -1
			for i, s := range sectionOrder {
				if s == first.Atom {
					idx = i
				}
			}
			if idx < 0 {
				return nil, ln.errAt(0, ErrSectionOrder, "one of "+strings.Join(sectionOrder, ", "))
			}
			if idx <= last {
				return nil, ln.errAt(0, ErrSectionOrder, "sections in the order "+strings.Join(sectionOrder, ", ")+", each once")
			}
			for i := last + 1; i < idx; i++ {
				if sectionOrder[i] != "$auto" {
					return nil, ln.errAt(0, ErrSectionOrder, "section "+sectionOrder[i]+" before "+first.Atom)
				}
			}
			if len(ln.words) != 1 {
				return nil, ln.errAt(1, ErrGrammar, "nothing after the section header")
			}
			last = idx
			current = first.Atom
			sections[current] = section{header: ln}
			continue
		}
		if current == "" {
			return nil, ln.errAt(0, ErrSectionOrder, "a $cards section after the game name")
		}
		s := sections[current]
		s.body = append(s.body, ln)
		sections[current] = s
	}
	if last != len(sectionOrder)-1 {
		missing := sectionOrder[len(sectionOrder)-1]
		for i := last + 1; i < len(sectionOrder); i++ {
			if sectionOrder[i] != "$auto" {
				missing = sectionOrder[i]
				break
			}
		}
		ln := srcLine{num: 1}
		if len(lines) > 0 {
			ln = lines[len(lines)-1]
		}
		return nil, &ParseError{Line: ln.num, Column: 1, Expected: "section " + missing, Err: ErrSectionOrder}
	}
	return sections, nil
}

type parser struct {
	rules    *engine.Rules
	declared map[string]bool
}

func (p *parser) hasDraw() bool {
	return p.rules.Layout.Draw != nil
}

func number(ln srcLine, i int) (int, error) {
	if i >= len(ln.words) {
		return 0, ln.errAt(i, ErrGrammar, "a number")
	}
	w := ln.words[i]
	if w.List != nil || w.Atom == "" {
		return 0, ln.errAt(i, ErrInvalidToken, "a number")
	}
	n, err := strconv.Atoi(w.Atom)
	if err != nil {
		return 0, ln.errAt(i, ErrInvalidToken, "a number")
	}
	return n, nil
}

func numberOrUnlimited(ln srcLine, i int) (int, error) {
	if i < len(ln.words) && ln.words[i].Atom == "U" {
		return engine.Unlimited, nil
	}
	return number(ln, i)
}

func (p *parser) cards(s section) error {
	if len(s.body) != 1 {
		return s.header.errAt(0, ErrGrammar, "exactly one DECK line in $cards")
	}
	ln := s.body[0]
	if !ln.is("DECK") || len(ln.words) != 3 {
		return ln.errAt(0, ErrGrammar, "DECK <count> {SUITS}")
	}
	count, err := number(ln, 1)
	if err != nil {
		return err
	}
	if count < 1 {
		return ln.errAt(1, ErrInvalidToken, "a positive deck count")
	}
	seen := make(map[engine.Suit]bool)
	var suits []engine.Suit
	for _, item := range ln.words[2].items() {
		suit, ok := engine.ParseSuitName(item)
		if !ok {
			return ln.errAt(2, ErrInvalidToken, "suits among SPADES, HEARTS, CLUBS, DIAMONDS")
		}
		if seen[suit] {
			return ln.errAt(2, ErrGrammar, "each suit once")
		}
		seen[suit] = true
		suits = append(suits, suit)
	}
	if len(suits) == 0 {
		return ln.errAt(2, ErrGrammar, "at least one suit")
	}
	p.rules.Deck = engine.DeckSpec{Count: count, Suits: suits}
	return nil
}

func (p *parser) initial(s section) error {
	var drawLine srcLine
	for _, ln := range s.body {
		if ln.is(engine.DrawCategory) {
			if p.hasDraw() {
				return ln.errAt(0, ErrDuplicateDraw, "at most one DRAW line")
			}
			if err := p.drawPile(ln); err != nil {
				return err
			}
			drawLine = ln
			continue
		}
		if err := p.pile(ln); err != nil {
			return err
		}
	}

	if d := p.rules.Layout.Draw; d != nil && d.Mode == engine.DrawDeal {
		for _, t := range d.Targets {
			if t == engine.DrawCategory {
				return drawLine.errAt(3, ErrGrammar, "deal targets other than the DRAW pile itself")
			}
			if !p.declared[t] {
				return drawLine.errAt(3, ErrUnknownCategory, "deal targets declared in $initial")
			}
		}
	}

	total := 0
	if d := p.rules.Layout.Draw; d != nil {
		total += d.Count
	}
	for _, ps := range p.rules.Layout.Piles {
		total += ps.Count
	}
	if total > p.rules.Deck.Size() {
		return s.header.errAt(0, ErrOversubscribed, fmt.Sprintf("at most %d cards in the layout, found %d", p.rules.Deck.Size(), total))
	}

	remaining := make(map[engine.Card]int)
	for _, c := range p.rules.Deck.Cards() {
		remaining[c]++
	}
	for _, ps := range p.rules.Layout.Piles {
		for _, c := range ps.Cards {
			if remaining[c] == 0 {
				ln := srcLine{num: ps.Line, indent: 0}
				for _, l := range s.body {
					if l.num == ps.Line {
						ln = l
					}
				}
				return ln.errAt(len(ln.words)-1, ErrOversubscribed, "card "+c.String()+" to be available in the deck")
			}
			remaining[c]--
		}
	}
	return nil
}

func (p *parser) drawPile(ln srcLine) error {
	if len(ln.words) < 3 {
		return ln.errAt(len(ln.words), ErrGrammar, "DRAW <count> DEAL {TARGETS} or DRAW <count> ROTATE <draw> <view> <redeals>")
	}
	count, err := number(ln, 1)
	if err != nil {
		return err
	}
	spec := &engine.DrawSpec{Count: count}
	switch ln.words[2].Atom {
	case "DEAL":
		if len(ln.words) != 4 {
			return ln.errAt(4, ErrGrammar, "DRAW <count> DEAL {TARGETS}")
		}
		spec.Mode = engine.DrawDeal
		spec.Targets = ln.words[3].items()
	case "ROTATE":
		if len(ln.words) != 6 {
			return ln.errAt(6, ErrGrammar, "DRAW <count> ROTATE <draw> <view|U> <redeals|U>")
		}
		spec.Mode = engine.DrawRotate
		if spec.DrawCount, err = number(ln, 3); err != nil {
			return err
		}
		if spec.DrawCount < 1 {
			return ln.errAt(3, ErrInvalidToken, "a positive draw count")
		}
		if spec.ViewCount, err = numberOrUnlimited(ln, 4); err != nil {
			return err
		}
		if spec.ViewCount == 0 {
			return ln.errAt(4, ErrInvalidToken, "a positive view count or U")
		}
		if spec.MaxRedeals, err = numberOrUnlimited(ln, 5); err != nil {
			return err
		}
	default:
		return ln.errAt(2, ErrGrammar, "DEAL or ROTATE")
	}
	p.rules.Layout.Draw = spec
	return nil
}

func (p *parser) pile(ln srcLine) error {
	if len(ln.words) < 2 || len(ln.words) > 4 || ln.words[0].List != nil || ln.words[0].Atom == "" {
		return ln.errAt(0, ErrGrammar, "<CATEGORY> <count> [FACE_POLICY] [{CARDS}]")
	}
	cat := ln.words[0].Atom
	count, err := number(ln, 1)
	if err != nil {
		return err
	}
	spec := engine.PileSpec{Category: cat, Count: count, Face: engine.FaceLast, Line: ln.num}

	rest := ln.words[2:]
	if len(rest) > 0 && rest[0].List == nil {
		face, ok := engine.ParseFacePolicy(rest[0].Atom)
		if !ok {
			return ln.errAt(2, ErrInvalidFacePolicy, "FACE_LAST, FACE_ALL or FACE_ALTERNATE_LAST")
		}
		spec.Face = face
		rest = rest[1:]
	}
	if len(rest) > 0 {
		at := len(ln.words) - 1
		if rest[0].List == nil {
			return ln.errAt(at, ErrGrammar, "a {CARDS} list")
		}
		spec.Cards = []engine.Card{}
		for _, item := range rest[0].List.Items {
			c, err := engine.ParseCard(item)
			if err != nil {
				return ln.errAt(at, ErrInvalidToken, "card tokens such as S1, H10, DK")
			}
			spec.Cards = append(spec.Cards, c)
		}
		if len(spec.Cards) != count {
			return ln.errAt(at, ErrGrammar, fmt.Sprintf("%d cards as declared by the count", count))
		}
	}

	p.declared[cat] = true
	p.rules.Layout.Piles = append(p.rules.Layout.Piles, spec)
	return nil
}

func (p *parser) moves(s section, auto bool) error {
	body := s.body
	for i := 0; i < len(body); {
		header := body[i]
		i++
		var (
			kind  engine.ActionKind
			scope engine.Scope
		)
		switch {
		case header.is("MOVE"):
			kind, scope = engine.ActionMove, engine.ScopeMove
		case header.is("MOVE_STACK"):
			kind, scope = engine.ActionMoveStack, engine.ScopeStack
		case header.is(engine.DrawCategory) && !auto:
			kind, scope = engine.ActionDraw, engine.ScopeGeneral
		default:
			expected := "MOVE, MOVE_STACK or DRAW"
			if auto {
				expected = "MOVE or MOVE_STACK"
			}
			return header.errAt(0, ErrGrammar, expected)
		}

		if kind == engine.ActionDraw && len(header.words) != 1 {
			return header.errAt(1, ErrGrammar, "nothing after DRAW")
		}
		if kind != engine.ActionDraw && len(header.words) != 3 {
			return header.errAt(len(header.words), ErrGrammar, header.words[0].Atom+" <source> <destination>")
		}
		if i >= len(body) || body[i].indent < header.indent || isRuleHeader(body[i]) {
			return header.errAt(len(header.words), ErrGrammar, "a condition on the following line")
		}

		cp := &condParser{lines: body, pos: i, scope: scope, p: p}
		cond, err := cp.node()
		if err != nil {
			return err
		}
		i = cp.pos

		if kind == engine.ActionDraw {
			if !p.hasDraw() {
				return header.errAt(0, ErrUnknownCategory, "a DRAW pile declared in $initial")
			}
			if p.rules.Draw != nil {
				return header.errAt(0, ErrDuplicateRule, "a single DRAW rule")
			}
			p.rules.Draw = cond
			continue
		}
		if err := p.addRules(header, kind, cond, auto); err != nil {
			return err
		}
	}
	return nil
}

func isRuleHeader(ln srcLine) bool {
	return ln.is("MOVE") || ln.is("MOVE_STACK") || (ln.is(engine.DrawCategory) && len(ln.words) == 1)
}

func (p *parser) addRules(header srcLine, kind engine.ActionKind, cond *engine.Condition, auto bool) error {
	srcs := header.words[1].items()
	dsts := header.words[2].items()
	for _, src := range srcs {
		ok := p.declared[src] || (src == engine.DrawCategory && p.hasDraw() && kind == engine.ActionMove)
		if !ok {
			return header.errAt(1, ErrUnknownCategory, "source categories declared in $initial")
		}
	}
	for _, dst := range dsts {
		if !p.declared[dst] {
			return header.errAt(2, ErrUnknownCategory, "destination categories declared in $initial")
		}
	}

	target := &p.rules.Moves
	if auto {
		target = &p.rules.Auto
	}
	for _, src := range srcs {
		for _, dst := range dsts {
			for _, existing := range *target {
				if existing.Kind == kind && existing.Source == src && existing.Dest == dst {
					return header.errAt(0, ErrDuplicateRule, fmt.Sprintf("one rule for %s %s %s, combine conditions with AND or OR", kind, src, dst))
				}
			}
			*target = append(*target, engine.Rule{Kind: kind, Source: src, Dest: dst, Condition: cond, Line: header.num})
		}
	}
	return nil
}

func (p *parser) win(s section) error {
	if len(s.body) == 0 {
		return s.header.errAt(0, ErrGrammar, "a win condition")
	}
	cp := &condParser{lines: s.body, scope: engine.ScopeGeneral, p: p}
	cond, err := cp.node()
	if err != nil {
		return err
	}
	if cp.pos < len(s.body) {
		return s.body[cp.pos].errAt(0, ErrGrammar, "a single win condition, combine conditions with AND or OR")
	}
	p.rules.Win = cond
	return nil
}
