package sgdl

import (
	"errors"
	"fmt"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

var (
	// ErrGrammar is returned for lines that do not match the grammar
	ErrGrammar = errors.New("grammar error")
	// ErrSectionOrder is returned for missing, repeated or misplaced sections
	ErrSectionOrder = errors.New("section order")
	// ErrDuplicateDraw is returned when more than one DRAW pile is declared
	ErrDuplicateDraw = errors.New("duplicate DRAW pile")
	// ErrInvalidOperator is returned for comparison operators outside ==, !=, <, <=, >, >=
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrInvalidFacePolicy is returned for unknown face policy tokens
	ErrInvalidFacePolicy = errors.New("invalid face policy")
	// ErrInvalidToken is returned for malformed numbers, suits, ranks and cards
	ErrInvalidToken = errors.New("invalid token")
	// ErrPredicateContext is returned when a predicate is used where it cannot be evaluated
	ErrPredicateContext = errors.New("predicate not allowed here")

	// ErrUnknownCategory is returned when a pile category is referenced but not declared
	ErrUnknownCategory = engine.ErrUnknownCategory
	// ErrDuplicateRule is returned when two rules govern the same source and destination
	ErrDuplicateRule = engine.ErrDuplicateRule
	// ErrOversubscribed is returned when the layout needs more cards than the deck has
	ErrOversubscribed = engine.ErrOversubscribed
)

// ParseError locates a load-time error in the description text
type ParseError struct {
	Line     int
	Column   int
	Token    string
	Expected string
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d:%d: %v", e.Line, e.Column, e.Err)
	if e.Token != "" {
		msg += fmt.Sprintf(" near %q", e.Token)
	}
	if e.Expected != "" {
		msg += ": expected " + e.Expected
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
