package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Service {
	t.Helper()
	s, err := Open("", filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, Record{GameID: "klondike", GameName: "Klondike", Seed: 7, Player: "random", Moves: 120, Won: true})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("Expected ID and timestamp to be assigned, got %+v", rec)
	}

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.GameID != "klondike" || got.Seed != 7 || !got.Won || got.Moves != 120 || got.Player != "random" {
		t.Errorf("Unexpected record %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Timestamp changed: %v vs %v", got.CreatedAt, rec.CreatedAt)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecentAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{GameID: "spider", Seed: 1, Moves: 10, Won: false, CreatedAt: base, RunID: "run-a"},
		{GameID: "spider", Seed: 2, Moves: 30, Won: true, CreatedAt: base.Add(time.Minute), RunID: "run-a"},
		{GameID: "klondike", Seed: 3, Moves: 50, Won: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if _, err := s.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].GameID != "klondike" || recent[1].Seed != 2 {
		t.Errorf("Unexpected recent records %+v", recent)
	}

	sum, err := s.Summarize(ctx, "spider")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.Games != 2 || sum.Wins != 1 || sum.AvgMoves != 20 || sum.WinRate() != 0.5 {
		t.Errorf("Unexpected summary %+v", sum)
	}

	empty, err := s.Summarize(ctx, "freecell")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if empty.Games != 0 || empty.WinRate() != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}

	run, err := s.GetByRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(run) != 2 {
		t.Errorf("Expected 2 run records, got %d", len(run))
	}
	byGame, err := s.GetByGame(ctx, "klondike")
	if err != nil || len(byGame) != 1 {
		t.Errorf("Expected one klondike record, got %d (%v)", len(byGame), err)
	}
}

func TestBindPlaceholders(t *testing.T) {
	pg := &Service{driver: DriverPostgres}
	if got := pg.bind("SELECT ? FROM t WHERE a = ? AND b = ?"); got != "SELECT $1 FROM t WHERE a = $2 AND b = $3" {
		t.Errorf("Unexpected postgres query %q", got)
	}
	lite := &Service{driver: DriverSQLite}
	if got := lite.bind("a = ?"); got != "a = ?" {
		t.Errorf("Unexpected sqlite query %q", got)
	}
	if _, err := Open("mysql", "x"); err == nil {
		t.Error("Expected unsupported driver error")
	}
}
