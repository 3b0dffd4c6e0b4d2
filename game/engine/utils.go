package engine

import "math/rand"

// hiddenSlot addresses one card the player cannot see
type hiddenSlot struct {
	get func() Card
	set func(Card)
}

// Scramble returns a copy of the state with every card the player cannot see
// shuffled among the hidden positions. Automated players search the scrambled
// copy so that they cannot exploit the real order of face-down cards.
func Scramble(s *GameState, rng *rand.Rand) *GameState {
	c := s.Clone()
	var slots []hiddenSlot

	if d := c.Draw; d != nil && (d.Mode == DrawDeal || d.Redeals == 0) {
		for i := range d.Backing {
			i := i
			slots = append(slots, hiddenSlot{
				get: func() Card { return d.Backing[i] },
				set: func(card Card) { d.Backing[i] = card },
			})
		}
	}
	for _, p := range c.AllPiles() {
		for i := range p.Slots {
			if p.Slots[i].FaceUp {
				continue
			}
			p, i := p, i
			slots = append(slots, hiddenSlot{
				get: func() Card { return p.Slots[i].Card },
				set: func(card Card) { p.Slots[i].Card = card },
			})
		}
	}
	for i := range c.Undealt {
		i := i
		slots = append(slots, hiddenSlot{
			get: func() Card { return c.Undealt[i] },
			set: func(card Card) { c.Undealt[i] = card },
		})
	}

	cards := make([]Card, len(slots))
	for i, slot := range slots {
		cards[i] = slot.get()
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	for i, slot := range slots {
		slot.set(cards[i])
	}
	return c
}

// HiddenCount counts face-down pile cards and unseen draw pile cards
func HiddenCount(s *GameState) int {
	n := 0
	for _, p := range s.AllPiles() {
		for _, slot := range p.Slots {
			if !slot.FaceUp {
				n++
			}
		}
	}
	if s.Draw != nil {
		n += len(s.Draw.Backing)
	}
	return n
}

// CategorySize counts the cards held by every pile of a category
func CategorySize(s *GameState, category string) int {
	if category == DrawCategory {
		if s.Draw == nil {
			return 0
		}
		return s.Draw.Len()
	}
	n := 0
	for _, p := range s.Piles[category] {
		n += p.Len()
	}
	return n
}

// EmptyPiles counts the empty piles of a category
func EmptyPiles(s *GameState, category string) int {
	n := 0
	for _, p := range s.Piles[category] {
		if p.Empty() {
			n++
		}
	}
	return n
}
