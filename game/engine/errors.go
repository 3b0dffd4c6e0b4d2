package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory is returned when a rule names an undeclared pile category
	ErrUnknownCategory = errors.New("unknown pile category")
	// ErrDuplicateRule is returned when two rules govern the same action shape
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrOversubscribed is returned when the layout needs cards the deck does not have
	ErrOversubscribed = errors.New("layout exceeds deck")
	// ErrInvalidAction is returned for malformed action text
	ErrInvalidAction = errors.New("invalid action")

	// ErrAutoMoveLimit is the fault raised when automatic moves do not reach a fixed point
	ErrAutoMoveLimit = errors.New("automatic move limit exceeded")
	// ErrDeckMismatch is the fault raised when the card count drifts from the deck size
	ErrDeckMismatch = errors.New("deck size mismatch")
	// ErrTopCardHidden is the fault raised when a non-empty pile has a face-down top card
	ErrTopCardHidden = errors.New("top card face down")
	// ErrMultipleDrawPiles is the fault raised when more than one draw pile exists
	ErrMultipleDrawPiles = errors.New("more than one draw pile")
)

// FaultError is an internal invariant violation. It indicates a broken
// description or engine bug, never an illegal player action, and the state
// it was raised on is left untouched.
type FaultError struct {
	Op     string
	Action string
	Err    error
}

func (e *FaultError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("engine fault in %s (%s): %v", e.Op, e.Action, e.Err)
	}
	return fmt.Sprintf("engine fault in %s: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// IsFault reports whether err is an engine fault
func IsFault(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe)
}
