package player

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// ErrNoScoreFunction is returned when a script does not define score
var ErrNoScoreFunction = errors.New("script does not define a score function")

// LuaHeuristic scores positions with a Lua script. The script defines
//
//	function score(view, action) ... return number end
//
// view holds moves, won, actions (legal action count), hidden (cards the
// player cannot see), sizes and empty (card and empty pile counts per
// category) and piles, a list of {name, category, index, cards, face_up}
// where cards lists the visible cards bottom to top. action is the action
// text.
type LuaHeuristic struct {
	mu      sync.Mutex
	ls      *lua.LState
	fn      lua.LValue
	lastErr error
}

// NewLuaHeuristic compiles the script
func NewLuaHeuristic(script string) (*LuaHeuristic, error) {
	L := lua.NewState()
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("load heuristic script: %w", err)
	}
	fn := L.GetGlobal("score")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoScoreFunction
	}
	return &LuaHeuristic{ls: L, fn: fn}, nil
}

// Close releases the interpreter
func (h *LuaHeuristic) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ls.Close()
}

// Score runs the script for one successor position
func (h *LuaHeuristic) Score(e *engine.Engine, next *engine.GameState, a engine.Action) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	view := h.view(e, next)
	if err := h.ls.CallByParam(lua.P{Fn: h.fn, NRet: 1, Protect: true}, view, lua.LString(a.String())); err != nil {
		return 0, fmt.Errorf("score %s: %w", a, err)
	}
	ret := h.ls.Get(-1)
	h.ls.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("score %s: expected a number, got %s", a, ret.Type())
	}
	return float64(n), nil
}

// Heuristic adapts the script to the Heuristic signature. A failing script
// scores 0; the failure is kept for Err.
func (h *LuaHeuristic) Heuristic() Heuristic {
	return func(e *engine.Engine, next *engine.GameState, a engine.Action) float64 {
		score, err := h.Score(e, next, a)
		if err != nil {
			h.mu.Lock()
			h.lastErr = err
			h.mu.Unlock()
			return 0
		}
		return score
	}
}

// Err returns the last script failure seen through Heuristic
func (h *LuaHeuristic) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *LuaHeuristic) view(e *engine.Engine, s *engine.GameState) *lua.LTable {
	L := h.ls
	view := L.NewTable()
	view.RawSetString("moves", lua.LNumber(s.Moves))
	view.RawSetString("won", lua.LBool(e.Won(s)))
	view.RawSetString("actions", lua.LNumber(len(e.Actions(s))))
	view.RawSetString("hidden", lua.LNumber(engine.HiddenCount(s)))

	sizes := L.NewTable()
	empty := L.NewTable()
	for _, cat := range s.Categories {
		sizes.RawSetString(cat, lua.LNumber(engine.CategorySize(s, cat)))
		empty.RawSetString(cat, lua.LNumber(engine.EmptyPiles(s, cat)))
	}
	if s.Draw != nil {
		sizes.RawSetString(engine.DrawCategory, lua.LNumber(s.Draw.Len()))
	}
	view.RawSetString("sizes", sizes)
	view.RawSetString("empty", empty)

	piles := L.NewTable()
	for _, p := range s.AllPiles() {
		pt := L.NewTable()
		pt.RawSetString("name", lua.LString(p.Name()))
		pt.RawSetString("category", lua.LString(p.Category))
		pt.RawSetString("index", lua.LNumber(p.Index))
		cards := L.NewTable()
		up := 0
		for _, slot := range p.Slots {
			if slot.FaceUp {
				cards.Append(lua.LString(slot.Card.String()))
				up++
			}
		}
		pt.RawSetString("cards", cards)
		pt.RawSetString("face_up", lua.LNumber(up))
		pt.RawSetString("size", lua.LNumber(p.Len()))
		piles.Append(pt)
	}
	view.RawSetString("piles", piles)
	return view
}
