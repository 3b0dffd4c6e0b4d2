package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Clubs
	Diamonds
)

// AllSuits lists the suits in deck construction order
var AllSuits = []Suit{Spades, Hearts, Clubs, Diamonds}

// Color is the derived colour of a suit
type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Color returns black for spades and clubs, red for hearts and diamonds
func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// String returns the single-letter form used in card tokens
func (s Suit) String() string {
	switch s {
	case Spades:
		return "S"
	case Hearts:
		return "H"
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	}
	return "?"
}

// Name returns the long form used in deck declarations
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "SPADES"
	case Hearts:
		return "HEARTS"
	case Clubs:
		return "CLUBS"
	case Diamonds:
		return "DIAMONDS"
	}
	return "UNKNOWN"
}

// ParseSuitName parses SPADES, HEARTS, CLUBS or DIAMONDS
func ParseSuitName(s string) (Suit, bool) {
	for _, suit := range AllSuits {
		if suit.Name() == s {
			return suit, true
		}
	}
	return 0, false
}

// ParseSuitLetter parses S, H, C or D
func ParseSuitLetter(s string) (Suit, bool) {
	for _, suit := range AllSuits {
		if suit.String() == s {
			return suit, true
		}
	}
	return 0, false
}

// Rank is a card rank from Ace (1) to King (13)
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// String returns 1..10, J, Q or K
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// ParseRank accepts 1..10, A, J, Q and K
func ParseRank(s string) (Rank, bool) {
	switch s {
	case "A":
		return Ace, true
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 10 {
		return 0, false
	}
	return Rank(n), true
}

// Card is an immutable suit and rank pair. Visibility lives on the Slot holding it.
type Card struct {
	Suit Suit
	Rank Rank
}

// String renders the card token, e.g. S1, H10, DK
func (c Card) String() string {
	return c.Suit.String() + c.Rank.String()
}

// Color returns the colour of the card's suit
func (c Card) Color() Color {
	return c.Suit.Color()
}

// ParseCard parses a card token such as S1, H10 or CK
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit, ok := ParseSuitLetter(s[:1])
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	rank, ok := ParseRank(s[1:])
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MarshalText encodes the card as its token
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card token
func (c *Card) UnmarshalText(b []byte) error {
	card, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// Slot is a card held by a pile together with its face-up flag
type Slot struct {
	Card   Card `json:"card"`
	FaceUp bool `json:"face_up"`
}

func (s Slot) String() string {
	if s.FaceUp {
		return s.Card.String()
	}
	return "[" + s.Card.String() + "]"
}

// FacePolicy decides which cards of a freshly dealt pile start face up
type FacePolicy uint8

const (
	FaceLast FacePolicy = iota
	FaceAll
	FaceAlternateLast
)

func (f FacePolicy) String() string {
	switch f {
	case FaceAll:
		return "FACE_ALL"
	case FaceAlternateLast:
		return "FACE_ALTERNATE_LAST"
	}
	return "FACE_LAST"
}

// ParseFacePolicy parses FACE_LAST, FACE_ALL or FACE_ALTERNATE_LAST
func ParseFacePolicy(s string) (FacePolicy, bool) {
	switch s {
	case "FACE_LAST":
		return FaceLast, true
	case "FACE_ALL":
		return FaceAll, true
	case "FACE_ALTERNATE_LAST":
		return FaceAlternateLast, true
	}
	return 0, false
}

// DrawCategory is the reserved category of the single draw pile
const DrawCategory = "DRAW"

// Pile is one instance of a category, bottom card first
type Pile struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Slots    []Slot `json:"slots"`
}

// Name returns the pile reference used in action text, e.g. COLUMN[2]
func (p *Pile) Name() string {
	return fmt.Sprintf("%s[%d]", p.Category, p.Index)
}

// Len returns the number of cards in the pile
func (p *Pile) Len() int {
	return len(p.Slots)
}

// Empty reports whether the pile has no cards
func (p *Pile) Empty() bool {
	return len(p.Slots) == 0
}

// Top returns the last slot. The pile must not be empty.
func (p *Pile) Top() Slot {
	return p.Slots[len(p.Slots)-1]
}

// Run returns the cards from index from to the top
func (p *Pile) Run(from int) []Card {
	cards := make([]Card, 0, len(p.Slots)-from)
	for _, s := range p.Slots[from:] {
		cards = append(cards, s.Card)
	}
	return cards
}

func (p *Pile) applyFace(policy FacePolicy) {
	switch policy {
	case FaceAll:
		for i := range p.Slots {
			p.Slots[i].FaceUp = true
		}
	case FaceAlternateLast:
		up := true
		for i := len(p.Slots) - 1; i >= 0; i-- {
			p.Slots[i].FaceUp = up
			up = !up
		}
	default:
		p.flipTop()
	}
}

// take removes the slots from index from and turns the new top face up
func (p *Pile) take(from int) []Slot {
	taken := make([]Slot, len(p.Slots)-from)
	copy(taken, p.Slots[from:])
	p.Slots = p.Slots[:from]
	p.flipTop()
	return taken
}

func (p *Pile) push(slots ...Slot) {
	p.Slots = append(p.Slots, slots...)
}

func (p *Pile) flipTop() {
	if len(p.Slots) > 0 {
		p.Slots[len(p.Slots)-1].FaceUp = true
	}
}

func (p *Pile) clone() *Pile {
	c := &Pile{Category: p.Category, Index: p.Index, Slots: make([]Slot, len(p.Slots))}
	copy(c.Slots, p.Slots)
	return c
}

func (p *Pile) String() string {
	parts := make([]string, len(p.Slots))
	for i, s := range p.Slots {
		parts[i] = s.String()
	}
	return p.Name() + ": " + strings.Join(parts, ", ")
}
