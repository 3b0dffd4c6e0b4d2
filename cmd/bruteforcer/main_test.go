package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/wricardo/sgdl-solitaire/api"
	"github.com/wricardo/sgdl-solitaire/game/config"
	"github.com/wricardo/sgdl-solitaire/game/service"
	"github.com/wricardo/sgdl-solitaire/game/session"
)

// ladder is won by moving its three cards to the foundation in order, with a
// spare column to shuffle cards into
const ladder = `Ladder

$cards
DECK 1 {SPADES}

$initial
COLUMN 3 FACE_ALL {S3, S2, S1}
COLUMN 0
FOUNDATION 0

$moves
MOVE COLUMN FOUNDATION
    OR
        AND
            DEST Empty
            SRC Rank 1
        AND
            DESTSRC Suit match
            DESTSRC Rank ascending
MOVE COLUMN COLUMN
    DEST Empty

$win
PILE ALL {FOUNDATION} Size == 3
`

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ladder.sgdl"), []byte(ladder), 0644); err != nil {
		t.Fatal(err)
	}
	games, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create game manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), games)
	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)
	return server
}

func TestExplorerStrategyRanking(t *testing.T) {
	s := NewExplorerStrategy("FOUNDATION", 1)
	actions := []string{"draw", "move COLUMN[0] COLUMN[1]", "move_stack COLUMN[0]:1 COLUMN[2]", "move COLUMN[0] FOUNDATION[0]"}

	want := []string{"move COLUMN[0] FOUNDATION[0]", "move_stack COLUMN[0]:1 COLUMN[2]", "move COLUMN[0] COLUMN[1]", "draw", ""}
	for i, w := range want {
		if got := s.NextAction("p", actions); got != w {
			t.Errorf("Pick %d: expected %q, got %q", i, w, got)
		}
	}
	if s.Positions() != 1 {
		t.Errorf("Expected 1 position, got %d", s.Positions())
	}

	if got := s.NextAction("q", actions); got != "move COLUMN[0] FOUNDATION[0]" {
		t.Errorf("Expected a new position to start over, got %q", got)
	}
	s.Reset()
	if s.Positions() != 0 {
		t.Errorf("Expected reset to forget positions, got %d", s.Positions())
	}
}

func TestExplorerStrategyTieBreak(t *testing.T) {
	actions := []string{"move COLUMN[0] COLUMN[1]", "move COLUMN[1] COLUMN[0]", "move COLUMN[2] COLUMN[0]"}
	seen := map[string]bool{}
	for seed := int64(0); seed < 20; seed++ {
		seen[NewExplorerStrategy("FOUNDATION", seed).NextAction("p", actions)] = true
	}
	if len(seen) < 2 {
		t.Errorf("Expected ties to be broken differently across seeds, got %v", seen)
	}
}

func TestClientSession(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	c := NewClient(server.URL + "/")

	info, err := c.CreateSession(ctx, "ladder", nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if info.ID == "" || info.GameID != "ladder" {
		t.Errorf("Unexpected session %+v", info)
	}

	actions, err := c.Actions(ctx)
	if err != nil {
		t.Fatalf("Failed to list actions: %v", err)
	}
	if len(actions) != 2 {
		t.Errorf("Expected 2 opening actions, got %v", actions)
	}

	res, err := c.Apply(ctx, "move COLUMN[0] FOUNDATION[0]")
	if err != nil || !res.Success {
		t.Fatalf("Expected the ace to move, got %+v, %v", res, err)
	}
	res, err = c.Apply(ctx, "move COLUMN[0] FOUNDATION[0]")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Errorf("Expected the two to follow the ace: %s", res.Trace)
	}

	state, err := c.Reset(ctx)
	if err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if state.Moves != 0 {
		t.Errorf("Expected a fresh deal, got %d moves", state.Moves)
	}

	other := NewClient(server.URL)
	if _, err := other.Resume(ctx, info.ID); err != nil {
		t.Errorf("Failed to resume session: %v", err)
	}
	if _, err := other.Resume(ctx, "missing"); err == nil {
		t.Error("Expected resuming an unknown session to fail")
	}
}

func TestPlayAttemptWins(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	c := NewClient(server.URL)
	if _, err := c.CreateSession(ctx, "ladder", nil); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	res, err := playAttempt(ctx, c, NewExplorerStrategy("FOUNDATION", 7), 50, 0)
	if err != nil {
		t.Fatalf("Attempt failed: %v", err)
	}
	if !res.Won {
		t.Fatalf("Expected the ladder to be won, got %+v", res)
	}
	if res.Moves != 3 {
		t.Errorf("Expected foundation moves to be preferred for a 3 move win, got %d", res.Moves)
	}
}
