package engine

import (
	"fmt"
	"math/rand"
)

// Unlimited marks an unbounded view count or redeal count on a rotate draw pile
const Unlimited = -1

// DeckSpec is the declared deck: Count copies of 13 ranks for every suit listed
type DeckSpec struct {
	Count int    `json:"count"`
	Suits []Suit `json:"suits"`
}

// Size returns the total number of cards in the deck
func (d DeckSpec) Size() int {
	return d.Count * len(d.Suits) * 13
}

// Cards returns the unshuffled deck in construction order
func (d DeckSpec) Cards() []Card {
	cards := make([]Card, 0, d.Size())
	for i := 0; i < d.Count; i++ {
		for _, suit := range d.Suits {
			for r := Ace; r <= King; r++ {
				cards = append(cards, Card{Suit: suit, Rank: r})
			}
		}
	}
	return cards
}

// DrawSpec declares the draw pile and its variant
type DrawSpec struct {
	Mode       DrawMode `json:"mode"`
	Count      int      `json:"count"`
	Targets    []string `json:"targets,omitempty"`
	DrawCount  int      `json:"draw_count,omitempty"`
	ViewCount  int      `json:"view_count,omitempty"`
	MaxRedeals int      `json:"max_redeals,omitempty"`
}

// PileSpec declares one pile instance. Cards is non-nil when the pile starts
// with an explicit list instead of dealt cards.
type PileSpec struct {
	Category string     `json:"category"`
	Count    int        `json:"count"`
	Face     FacePolicy `json:"face"`
	Cards    []Card     `json:"cards,omitempty"`
	Line     int        `json:"line,omitempty"`
}

// Layout is the initial arrangement of the draw pile and the piles
type Layout struct {
	Draw  *DrawSpec  `json:"draw,omitempty"`
	Piles []PileSpec `json:"piles"`
}

// Categories returns the declared pile categories in declaration order
func (l Layout) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, p := range l.Piles {
		if !seen[p.Category] {
			seen[p.Category] = true
			cats = append(cats, p.Category)
		}
	}
	return cats
}

// Rule binds an action shape to the condition that must hold for it
type Rule struct {
	Kind      ActionKind `json:"kind"`
	Source    string     `json:"source"`
	Dest      string     `json:"dest"`
	Condition *Condition `json:"condition"`
	Line      int        `json:"line,omitempty"`
}

func (r Rule) key() ruleKey {
	return ruleKey{kind: r.Kind, src: r.Source, dst: r.Dest}
}

type ruleKey struct {
	kind     ActionKind
	src, dst string
}

// Rules is a fully parsed game description
type Rules struct {
	Name   string     `json:"name"`
	Deck   DeckSpec   `json:"deck"`
	Layout Layout     `json:"layout"`
	Moves  []Rule     `json:"moves"`
	Draw   *Condition `json:"draw,omitempty"`
	Auto   []Rule     `json:"auto,omitempty"`
	Win    *Condition `json:"win"`
}

// ValidateRules checks the structural constraints a playable description must satisfy
func ValidateRules(r *Rules) error {
	if r == nil {
		return fmt.Errorf("rules validation: rules are required")
	}
	if r.Deck.Count < 1 || len(r.Deck.Suits) == 0 {
		return fmt.Errorf("rules validation: deck must have at least one copy of one suit")
	}
	if r.Win == nil {
		return fmt.Errorf("rules validation: win condition is required")
	}

	declared := make(map[string]bool)
	total := 0
	for _, p := range r.Layout.Piles {
		if p.Category == DrawCategory {
			return fmt.Errorf("rules validation: %w", ErrMultipleDrawPiles)
		}
		if p.Count < 0 {
			return fmt.Errorf("rules validation: pile %s has negative count", p.Category)
		}
		if p.Cards != nil && len(p.Cards) != p.Count {
			return fmt.Errorf("rules validation: pile %s declares %d cards but lists %d", p.Category, p.Count, len(p.Cards))
		}
		declared[p.Category] = true
		total += p.Count
	}
	if d := r.Layout.Draw; d != nil {
		total += d.Count
		switch d.Mode {
		case DrawDeal:
			for _, t := range d.Targets {
				if t == DrawCategory {
					return fmt.Errorf("rules validation: deal draw pile cannot deal into itself")
				}
				if !declared[t] {
					return fmt.Errorf("rules validation: deal target %s: %w", t, ErrUnknownCategory)
				}
			}
		case DrawRotate:
			if d.DrawCount < 1 {
				return fmt.Errorf("rules validation: rotate draw count must be positive")
			}
			if d.ViewCount != Unlimited && d.ViewCount < 1 {
				return fmt.Errorf("rules validation: rotate view count must be positive or unlimited")
			}
			if d.MaxRedeals != Unlimited && d.MaxRedeals < 0 {
				return fmt.Errorf("rules validation: rotate redeals must be non-negative or unlimited")
			}
		}
	}
	if total > r.Deck.Size() {
		return fmt.Errorf("rules validation: layout needs %d cards, deck has %d: %w", total, r.Deck.Size(), ErrOversubscribed)
	}
	if _, err := reserveExplicit(r); err != nil {
		return fmt.Errorf("rules validation: %w", err)
	}

	hasDraw := r.Layout.Draw != nil
	seen := make(map[ruleKey]bool)
	checkRules := func(section string, rules []Rule) error {
		for _, rule := range rules {
			if rule.Dest == DrawCategory || !declared[rule.Dest] {
				return fmt.Errorf("rules validation: %s rule destination %s: %w", section, rule.Dest, ErrUnknownCategory)
			}
			srcOK := declared[rule.Source] || (rule.Kind == ActionMove && rule.Source == DrawCategory && hasDraw)
			if !srcOK {
				return fmt.Errorf("rules validation: %s rule source %s: %w", section, rule.Source, ErrUnknownCategory)
			}
			if rule.Condition == nil {
				return fmt.Errorf("rules validation: %s rule %s %s has no condition", section, rule.Source, rule.Dest)
			}
			k := rule.key()
			if seen[k] {
				return fmt.Errorf("rules validation: %s rule %s %s: %w", section, rule.Source, rule.Dest, ErrDuplicateRule)
			}
			seen[k] = true
		}
		return nil
	}
	if err := checkRules("move", r.Moves); err != nil {
		return err
	}
	seen = make(map[ruleKey]bool)
	if err := checkRules("auto", r.Auto); err != nil {
		return err
	}
	if r.Draw != nil && !hasDraw {
		return fmt.Errorf("rules validation: draw rule declared without a draw pile")
	}
	return nil
}

// reserveExplicit removes every explicitly listed card from the deck multiset
// and returns the remaining cards in construction order.
func reserveExplicit(r *Rules) ([]Card, error) {
	remaining := r.Deck.Cards()
	for _, p := range r.Layout.Piles {
		for _, c := range p.Cards {
			idx := -1
			for i, rc := range remaining {
				if rc == c {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("card %s in pile %s not available in deck: %w", c, p.Category, ErrOversubscribed)
			}
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
	}
	return remaining, nil
}

// InitGameState deals a fresh state from the rules using the given random source.
// Explicit card lists are reserved first, the remainder is shuffled and dealt to
// the draw pile and then to the piles in declaration order. Cards left over stay
// in the undealt reserve.
func InitGameState(r *Rules, rng *rand.Rand) (*GameState, error) {
	deck, err := reserveExplicit(r)
	if err != nil {
		return nil, err
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	deal := func(n int) ([]Card, error) {
		if n > len(deck) {
			return nil, fmt.Errorf("dealing %d cards from %d remaining: %w", n, len(deck), ErrOversubscribed)
		}
		out := deck[:n:n]
		deck = deck[n:]
		return out, nil
	}

	state := &GameState{
		Name:       r.Name,
		Categories: r.Layout.Categories(),
		Piles:      make(map[string][]*Pile),
	}

	if d := r.Layout.Draw; d != nil {
		cards, err := deal(d.Count)
		if err != nil {
			return nil, err
		}
		state.Draw = newDrawPile(d, cards)
	}

	for _, spec := range r.Layout.Piles {
		cards := spec.Cards
		if cards == nil {
			if cards, err = deal(spec.Count); err != nil {
				return nil, err
			}
		}
		pile := &Pile{
			Category: spec.Category,
			Index:    len(state.Piles[spec.Category]),
			Slots:    make([]Slot, len(cards)),
		}
		for i, c := range cards {
			pile.Slots[i] = Slot{Card: c}
		}
		pile.applyFace(spec.Face)
		state.Piles[spec.Category] = append(state.Piles[spec.Category], pile)
	}

	state.Undealt = append([]Card(nil), deck...)
	return state, nil
}
