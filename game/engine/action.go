package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is the shape of a player or automatic action
type ActionKind uint8

const (
	ActionMove ActionKind = iota
	ActionMoveStack
	ActionDraw
)

func (k ActionKind) String() string {
	switch k {
	case ActionMoveStack:
		return "move_stack"
	case ActionDraw:
		return "draw"
	}
	return "move"
}

// MarshalText encodes the kind as move, move_stack or draw
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes move, move_stack or draw
func (k *ActionKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "move":
		*k = ActionMove
	case "move_stack":
		*k = ActionMoveStack
	case "draw":
		*k = ActionDraw
	default:
		return fmt.Errorf("unknown action kind %q", b)
	}
	return nil
}

// PileRef addresses one pile instance. The draw pile has category DRAW and index 0.
type PileRef struct {
	Category string
	Index    int
}

// IsDraw reports whether the reference is the draw pile
func (r PileRef) IsDraw() bool {
	return r.Category == DrawCategory
}

func (r PileRef) String() string {
	if r.IsDraw() {
		return DrawCategory
	}
	return fmt.Sprintf("%s[%d]", r.Category, r.Index)
}

// ParsePileRef parses DRAW or CATEGORY[index]
func ParsePileRef(s string) (PileRef, error) {
	if s == DrawCategory {
		return PileRef{Category: DrawCategory}, nil
	}
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return PileRef{}, fmt.Errorf("%w: pile reference %q, expected CATEGORY[index]", ErrInvalidAction, s)
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return PileRef{}, fmt.Errorf("%w: pile index in %q", ErrInvalidAction, s)
	}
	return PileRef{Category: s[:open], Index: idx}, nil
}

// Action is a concrete proposed move, stack move or draw.
// From is the index of the bottom card of the run for stack moves.
type Action struct {
	Kind   ActionKind
	Source PileRef
	From   int
	Dest   PileRef
}

// Draw is the draw action
var Draw = Action{Kind: ActionDraw}

// Move builds a single-card move
func Move(src, dst PileRef) Action {
	return Action{Kind: ActionMove, Source: src, Dest: dst}
}

// MoveStack builds a stack move of the run starting at index from
func MoveStack(src PileRef, from int, dst PileRef) Action {
	return Action{Kind: ActionMoveStack, Source: src, From: from, Dest: dst}
}

// String renders the action text: draw, move COLUMN[0] FOUNDATION[1],
// move DRAW COLUMN[2] or move_stack COLUMN[0]:3 COLUMN[2]
func (a Action) String() string {
	switch a.Kind {
	case ActionDraw:
		return "draw"
	case ActionMoveStack:
		return fmt.Sprintf("move_stack %s:%d %s", a.Source, a.From, a.Dest)
	}
	return fmt.Sprintf("move %s %s", a.Source, a.Dest)
}

// ParseAction parses the action text produced by String
func ParseAction(s string) (Action, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return Action{}, fmt.Errorf("%w: empty action", ErrInvalidAction)
	}
	switch parts[0] {
	case "draw":
		if len(parts) != 1 {
			return Action{}, fmt.Errorf("%w: draw takes no arguments", ErrInvalidAction)
		}
		return Draw, nil
	case "move":
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("%w: expected move SOURCE DEST", ErrInvalidAction)
		}
		src, err := ParsePileRef(parts[1])
		if err != nil {
			return Action{}, err
		}
		dst, err := ParsePileRef(parts[2])
		if err != nil {
			return Action{}, err
		}
		return Move(src, dst), nil
	case "move_stack":
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("%w: expected move_stack SOURCE:INDEX DEST", ErrInvalidAction)
		}
		colon := strings.LastIndexByte(parts[1], ':')
		if colon < 0 {
			return Action{}, fmt.Errorf("%w: missing run index in %q", ErrInvalidAction, parts[1])
		}
		src, err := ParsePileRef(parts[1][:colon])
		if err != nil {
			return Action{}, err
		}
		from, err := strconv.Atoi(parts[1][colon+1:])
		if err != nil || from < 0 {
			return Action{}, fmt.Errorf("%w: run index in %q", ErrInvalidAction, parts[1])
		}
		dst, err := ParsePileRef(parts[2])
		if err != nil {
			return Action{}, err
		}
		return MoveStack(src, from, dst), nil
	}
	return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, parts[0])
}

// MarshalText encodes the action as its text form
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes the action text form
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
