package engine

import (
	"errors"
	"reflect"
	"testing"
)

func newTestGame(t *testing.T, seed int64) *Game {
	t.Helper()
	g, err := NewGame(newTestEngine(t, solitaireRules()), seed)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	return g
}

func TestGameDeterministicDeal(t *testing.T) {
	a := newTestGame(t, 2024)
	b := newTestGame(t, 2024)
	if !reflect.DeepEqual(a.State().Snapshot(true), b.State().Snapshot(true)) {
		t.Error("Expected identical deals for identical seeds")
	}
	if a.Seed() != 2024 {
		t.Errorf("Expected seed 2024, got %d", a.Seed())
	}
}

func TestGameHistory(t *testing.T) {
	g := newTestGame(t, 5)
	if g.LastMove() != nil {
		t.Fatal("Expected no history on a fresh game")
	}

	res, err := g.Apply(Draw)
	if err != nil || !res.Applied {
		t.Fatalf("Expected draw to apply: %v", err)
	}
	bad := Move(PileRef{Category: "FOUNDATION"}, PileRef{Category: "COLUMN"})
	res, err = g.Apply(bad)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Applied {
		t.Fatal("Expected foundation to column move to be rejected")
	}

	history := g.History()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if history[0].Action != "draw" || !history[0].Applied || history[0].Step != 1 {
		t.Errorf("Unexpected first entry %+v", history[0])
	}
	if last := g.LastMove(); last.Applied || last.Action != bad.String() {
		t.Errorf("Unexpected last entry %+v", last)
	}
	if len(g.Log()) != 1 {
		t.Errorf("Expected only applied actions in the log, got %v", g.Log())
	}
	if g.State().Moves != 1 {
		t.Errorf("Expected 1 move, got %d", g.State().Moves)
	}
}

func TestGameApplyText(t *testing.T) {
	g := newTestGame(t, 5)
	if _, err := g.ApplyText("teleport"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Expected ErrInvalidAction, got %v", err)
	}
	if len(g.History()) != 0 {
		t.Error("Unparseable actions must not be recorded")
	}
	res, err := g.ApplyText("draw")
	if err != nil || !res.Applied {
		t.Errorf("Expected textual draw to apply: %v", err)
	}
}

func TestGameResetAndReplay(t *testing.T) {
	g := newTestGame(t, 77)
	initial := g.State().Snapshot(true)

	for i := 0; i < 10; i++ {
		actions := g.Actions()
		if len(actions) == 0 {
			break
		}
		if _, err := g.Apply(actions[0]); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	played := g.State().Snapshot(true)
	log := append([]Action(nil), g.Log()...)
	steps := len(g.History())

	replayed := newTestGame(t, 77)
	if err := replayed.Replay(log); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !reflect.DeepEqual(played, replayed.State().Snapshot(true)) {
		t.Error("Replaying the log did not reproduce the state")
	}

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !reflect.DeepEqual(initial, g.State().Snapshot(true)) {
		t.Error("Reset did not restore the initial deal")
	}
	if len(g.Log()) != 0 {
		t.Error("Expected the log to restart after reset")
	}
	if len(g.History()) != steps {
		t.Errorf("Expected history to survive reset, got %d entries", len(g.History()))
	}

	if err := g.Replay([]Action{Move(PileRef{Category: "FOUNDATION"}, PileRef{Category: "COLUMN"})}); err == nil {
		t.Error("Expected replay of a rejected action to fail")
	}
}

func TestGameFork(t *testing.T) {
	g := newTestGame(t, 9)
	if _, err := g.ApplyText("draw"); err != nil {
		t.Fatal(err)
	}
	before := g.State().Snapshot(true)

	fork := g.Fork()
	if err := fork.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := fork.ApplyText("draw"); err != nil {
		t.Fatal(err)
	}
	if _, err := fork.ApplyText("draw"); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(before, g.State().Snapshot(true)) {
		t.Error("Playing the fork changed the original state")
	}
	if len(g.History()) != 1 || len(g.Log()) != 1 {
		t.Errorf("Expected the original to keep 1 entry, got history %d log %d", len(g.History()), len(g.Log()))
	}
	if len(fork.History()) != 3 || len(fork.Log()) != 2 {
		t.Errorf("Expected the fork to carry history forward, got history %d log %d", len(fork.History()), len(fork.Log()))
	}
	if fork.Seed() != g.Seed() || fork.Engine() != g.Engine() {
		t.Error("Expected the fork to share seed and engine")
	}
}
