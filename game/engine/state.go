package engine

import (
	"fmt"
	"strings"
)

// GameState is the mutable aggregate of one game: every pile grouped by
// category, the optional draw pile and the undealt reserve.
type GameState struct {
	Name       string             `json:"name"`
	Categories []string           `json:"categories"`
	Piles      map[string][]*Pile `json:"piles"`
	Draw       *DrawPile          `json:"draw,omitempty"`
	Undealt    []Card             `json:"undealt,omitempty"`
	Moves      int                `json:"moves"`
}

// Pile returns the pile addressed by ref, or nil. The draw pile is not a Pile.
func (s *GameState) Pile(ref PileRef) *Pile {
	piles := s.Piles[ref.Category]
	if ref.Index < 0 || ref.Index >= len(piles) {
		return nil
	}
	return piles[ref.Index]
}

// AllPiles returns every pile in category declaration order
func (s *GameState) AllPiles() []*Pile {
	var out []*Pile
	for _, cat := range s.Categories {
		out = append(out, s.Piles[cat]...)
	}
	return out
}

// CardCount counts every card held by the state, hidden or visible
func (s *GameState) CardCount() int {
	n := len(s.Undealt)
	if s.Draw != nil {
		n += s.Draw.Len()
	}
	for _, p := range s.AllPiles() {
		n += p.Len()
	}
	return n
}

// Clone returns a deep copy of the state
func (s *GameState) Clone() *GameState {
	c := &GameState{
		Name:       s.Name,
		Categories: append([]string(nil), s.Categories...),
		Piles:      make(map[string][]*Pile, len(s.Piles)),
		Undealt:    append([]Card(nil), s.Undealt...),
		Moves:      s.Moves,
	}
	for cat, piles := range s.Piles {
		cp := make([]*Pile, len(piles))
		for i, p := range piles {
			cp[i] = p.clone()
		}
		c.Piles[cat] = cp
	}
	if s.Draw != nil {
		c.Draw = s.Draw.clone()
	}
	return c
}

// verify checks the invariants that must hold after every mutation
func (s *GameState) verify(deckSize int) error {
	if n := s.CardCount(); n != deckSize {
		return fmt.Errorf("%w: state holds %d cards, deck has %d", ErrDeckMismatch, n, deckSize)
	}
	if _, ok := s.Piles[DrawCategory]; ok {
		return ErrMultipleDrawPiles
	}
	for _, p := range s.AllPiles() {
		if !p.Empty() && !p.Top().FaceUp {
			return fmt.Errorf("%w: %s", ErrTopCardHidden, p.Name())
		}
	}
	return nil
}

// String renders the full state with hidden cards in brackets
func (s *GameState) String() string {
	var b strings.Builder
	b.WriteString(s.Name + "\n")
	if s.Draw != nil {
		b.WriteString(s.Draw.String() + "\n")
	}
	for _, p := range s.AllPiles() {
		b.WriteString(p.String() + "\n")
	}
	return b.String()
}
