package engine

import (
	"fmt"
	"strings"
)

// HiddenCard is shown in place of a face-down card in the player view
const HiddenCard = "??"

// CardView is one card as a front end may show it
type CardView struct {
	Card   string `json:"card"`
	FaceUp bool   `json:"face_up"`
}

// PileView is the read-only projection of a pile
type PileView struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Index    int        `json:"index"`
	Cards    []CardView `json:"cards"`
}

// DrawView is the read-only projection of the draw pile
type DrawView struct {
	Mode       string   `json:"mode"`
	Hidden     int      `json:"hidden"`
	Window     []string `json:"window,omitempty"`
	Drawn      int      `json:"drawn"`
	Redeals    int      `json:"redeals"`
	MaxRedeals int      `json:"max_redeals"`
	Targets    []string `json:"targets,omitempty"`
	Backing    []string `json:"backing,omitempty"`
}

// Snapshot is the read-only projection of a game state
type Snapshot struct {
	Name    string     `json:"name"`
	Moves   int        `json:"moves"`
	Draw    *DrawView  `json:"draw,omitempty"`
	Piles   []PileView `json:"piles"`
	Undealt int        `json:"undealt"`
}

// Snapshot projects the state. With reveal unset face-down cards are masked
// and the draw pile's backing order is withheld.
func (s *GameState) Snapshot(reveal bool) Snapshot {
	snap := Snapshot{Name: s.Name, Moves: s.Moves, Undealt: len(s.Undealt)}
	if d := s.Draw; d != nil {
		dv := &DrawView{
			Mode:       d.Mode.String(),
			Hidden:     len(d.Backing),
			Drawn:      len(d.Drawn),
			Redeals:    d.Redeals,
			MaxRedeals: d.MaxRedeals,
			Targets:    d.Targets,
		}
		for _, c := range d.Window {
			dv.Window = append(dv.Window, c.String())
		}
		if reveal {
			for _, c := range d.Backing {
				dv.Backing = append(dv.Backing, c.String())
			}
		}
		snap.Draw = dv
	}
	for _, p := range s.AllPiles() {
		pv := PileView{Name: p.Name(), Category: p.Category, Index: p.Index, Cards: make([]CardView, len(p.Slots))}
		for i, slot := range p.Slots {
			cv := CardView{Card: slot.Card.String(), FaceUp: slot.FaceUp}
			if !slot.FaceUp && !reveal {
				cv.Card = HiddenCard
			}
			pv.Cards[i] = cv
		}
		snap.Piles = append(snap.Piles, pv)
	}
	return snap
}

// Text renders the snapshot for a terminal, one pile per line
func (s Snapshot) Text() string {
	var b strings.Builder
	b.WriteString(s.Name + "\n")
	if d := s.Draw; d != nil {
		if d.Mode == DrawRotate.String() {
			limit := "U"
			if d.MaxRedeals != Unlimited {
				limit = fmt.Sprint(d.MaxRedeals)
			}
			fmt.Fprintf(&b, "DRAW: %d hidden, redeals %d/%s, view: %s [top]\n", d.Hidden, d.Redeals, limit, strings.Join(d.Window, ", "))
		} else {
			fmt.Fprintf(&b, "DRAW: %d cards to deal into %s\n", d.Hidden, strings.Join(d.Targets, ", "))
		}
	}
	for _, p := range s.Piles {
		parts := make([]string, len(p.Cards))
		for i, c := range p.Cards {
			if c.FaceUp {
				parts[i] = c.Card
			} else {
				parts[i] = "[" + c.Card + "]"
			}
		}
		b.WriteString(p.Name + ": " + strings.Join(parts, ", ") + "\n")
	}
	return b.String()
}
