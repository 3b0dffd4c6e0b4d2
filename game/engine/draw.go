package engine

import (
	"strconv"
	"strings"
)

// DrawMode selects the draw pile variant
type DrawMode uint8

const (
	DrawDeal DrawMode = iota
	DrawRotate
)

func (m DrawMode) String() string {
	if m == DrawRotate {
		return "ROTATE"
	}
	return "DEAL"
}

// MarshalText encodes the mode as DEAL or ROTATE
func (m DrawMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes DEAL or ROTATE
func (m *DrawMode) UnmarshalText(b []byte) error {
	if string(b) == "ROTATE" {
		*m = DrawRotate
	} else {
		*m = DrawDeal
	}
	return nil
}

// DrawPile is the single draw pile.
//
// Backing holds face-down cards, the next card to draw first. A deal pile moves
// one backing card into every pile of each target category per draw. A rotate
// pile moves up to DrawCount backing cards into the visible Window; cards pushed
// out of a bounded window go to Drawn. Once Backing is exhausted the next draw
// gathers Drawn and Window back into Backing, counts a redeal and shows the
// first window again.
type DrawPile struct {
	Mode       DrawMode `json:"mode"`
	Targets    []string `json:"targets,omitempty"`
	Backing    []Card   `json:"backing"`
	Window     []Card   `json:"window,omitempty"`
	Drawn      []Card   `json:"drawn,omitempty"`
	DrawCount  int      `json:"draw_count,omitempty"`
	ViewCount  int      `json:"view_count,omitempty"`
	MaxRedeals int      `json:"max_redeals,omitempty"`
	Redeals    int      `json:"redeals"`
}

func newDrawPile(spec *DrawSpec, cards []Card) *DrawPile {
	d := &DrawPile{
		Mode:       spec.Mode,
		Backing:    append([]Card(nil), cards...),
		DrawCount:  spec.DrawCount,
		ViewCount:  spec.ViewCount,
		MaxRedeals: spec.MaxRedeals,
	}
	if spec.Mode == DrawDeal {
		d.Targets = append([]string(nil), spec.Targets...)
	}
	return d
}

// Len counts every card the draw pile holds, hidden or visible
func (d *DrawPile) Len() int {
	return len(d.Backing) + len(d.Window) + len(d.Drawn)
}

// Playable reports whether the pile currently offers a face-up top card
func (d *DrawPile) Playable() bool {
	return d.Mode == DrawRotate && len(d.Window) > 0
}

// Top returns the playable card at the end of the window
func (d *DrawPile) Top() Card {
	return d.Window[len(d.Window)-1]
}

func (d *DrawPile) takeTop() Card {
	c := d.Top()
	d.Window = d.Window[:len(d.Window)-1]
	return c
}

// wrapping reports whether the next rotate draw would start a new redeal
func (d *DrawPile) wrapping() bool {
	return d.Mode == DrawRotate && len(d.Backing) == 0
}

// canDraw reports whether the mechanics allow a draw, with a reason when not
func (d *DrawPile) canDraw(s *GameState) (bool, string) {
	switch d.Mode {
	case DrawDeal:
		if len(d.Backing) == 0 {
			return false, "draw pile has cards left to deal"
		}
		for _, t := range d.Targets {
			if len(s.Piles[t]) > 0 {
				return true, "draw pile has cards left to deal"
			}
		}
		return false, "draw pile has a target pile to deal into"
	default:
		if len(d.Backing) > 0 {
			return true, "draw pile has hidden cards to turn over"
		}
		if len(d.Window)+len(d.Drawn) == 0 {
			return false, "draw pile has cards to redeal"
		}
		if d.MaxRedeals != Unlimited && d.Redeals >= d.MaxRedeals {
			return false, "draw pile has redeals left (" + d.redealText() + ")"
		}
		return true, "draw pile has redeals left (" + d.redealText() + ")"
	}
}

func (d *DrawPile) redealText() string {
	limit := "U"
	if d.MaxRedeals != Unlimited {
		limit = strconv.Itoa(d.MaxRedeals)
	}
	return strconv.Itoa(d.Redeals) + "/" + limit
}

// draw performs the draw mechanics. Callers check canDraw first.
func (d *DrawPile) draw(s *GameState) {
	if d.Mode == DrawDeal {
		for _, t := range d.Targets {
			for _, p := range s.Piles[t] {
				if len(d.Backing) == 0 {
					return
				}
				c := d.Backing[0]
				d.Backing = d.Backing[1:]
				p.push(Slot{Card: c, FaceUp: true})
			}
		}
		return
	}

	if len(d.Backing) == 0 {
		d.Redeals++
		d.Backing = append(append([]Card(nil), d.Drawn...), d.Window...)
		d.Drawn = nil
		d.Window = nil
	}
	n := d.DrawCount
	if n > len(d.Backing) {
		n = len(d.Backing)
	}
	for i := 0; i < n; i++ {
		d.Window = append(d.Window, d.Backing[0])
		d.Backing = d.Backing[1:]
		if d.ViewCount != Unlimited && len(d.Window) > d.ViewCount {
			d.Drawn = append(d.Drawn, d.Window[0])
			d.Window = d.Window[1:]
		}
	}
}

func (d *DrawPile) clone() *DrawPile {
	c := *d
	c.Targets = append([]string(nil), d.Targets...)
	c.Backing = append([]Card(nil), d.Backing...)
	c.Window = append([]Card(nil), d.Window...)
	c.Drawn = append([]Card(nil), d.Drawn...)
	return &c
}

func (d *DrawPile) String() string {
	var b strings.Builder
	b.WriteString("DRAW (" + d.Mode.String() + "): ")
	b.WriteString(strconv.Itoa(len(d.Backing)) + " hidden")
	if d.Mode == DrawRotate {
		b.WriteString(", redeals " + d.redealText() + ", view: ")
		parts := make([]string, len(d.Window))
		for i, c := range d.Window {
			parts[i] = c.String()
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}
