// Package store records finished games and simulation runs in a SQL database.
//
// SQLite is the default backend; a Postgres DSN can be used through the pgx
// stdlib driver. Both are registered here so callers only pick a driver name.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var ErrRecordNotFound = errors.New("record not found")

// Record is one finished or abandoned game
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	GameID    string    `json:"game_id"`
	GameName  string    `json:"game_name"`
	Seed      int64     `json:"seed"`
	Player    string    `json:"player"`
	Moves     int       `json:"moves"`
	Won       bool      `json:"won"`
	RunID     string    `json:"run_id,omitempty"`
}

// Summary aggregates the records of one game
type Summary struct {
	GameID   string  `json:"game_id"`
	Games    int     `json:"games"`
	Wins     int     `json:"wins"`
	AvgMoves float64 `json:"avg_moves"`
}

// WinRate returns the fraction of recorded games that were won
func (s Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// Service is a results database guarded by a mutex
type Service struct {
	db     *sql.DB
	m      *sync.Mutex
	driver string
}

const schema = `
create table if not exists results (
	id text not null primary key,
	created_at text not null,
	game_id text not null,
	game_name text,
	seed bigint,
	player text,
	moves integer,
	won integer,
	run_id text
);
`

const columns = "id, created_at, game_id, game_name, seed, player, moves, won, run_id"

// Open connects to the database and creates the results table if needed.
// An empty driver selects SQLite.
func Open(driver, dsn string) (*Service, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported results driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}
	return &Service{db: db, m: &sync.Mutex{}, driver: driver}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// bind rewrites ? placeholders into the $n form Postgres expects
func (s *Service) bind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert stores a record, assigning an ID and timestamp when missing
func (s *Service) Insert(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	won := 0
	if r.Won {
		won = 1
	}

	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.ExecContext(ctx, s.bind("INSERT INTO results ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		r.ID,
		r.CreatedAt.Format(time.RFC3339Nano),
		r.GameID,
		r.GameName,
		r.Seed,
		r.Player,
		r.Moves,
		won,
		r.RunID)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert result: %w", err)
	}
	return r, nil
}

// GetByID returns one record
func (s *Service) GetByID(ctx context.Context, id string) (Record, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rec, err := scanRecord(s.db.QueryRowContext(ctx, s.bind("SELECT "+columns+" FROM results WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

// Recent returns the latest records, newest first
func (s *Service) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, "SELECT "+columns+" FROM results ORDER BY created_at DESC LIMIT ?", limit)
}

// GetByGame returns every record of a game, oldest first
func (s *Service) GetByGame(ctx context.Context, gameID string) ([]Record, error) {
	return s.query(ctx, "SELECT "+columns+" FROM results WHERE game_id = ? ORDER BY created_at", gameID)
}

// GetByRun returns every record of a simulation run
func (s *Service) GetByRun(ctx context.Context, runID string) ([]Record, error) {
	return s.query(ctx, "SELECT "+columns+" FROM results WHERE run_id = ? ORDER BY seed", runID)
}

// Summarize aggregates the records of a game
func (s *Service) Summarize(ctx context.Context, gameID string) (Summary, error) {
	s.m.Lock()
	defer s.m.Unlock()
	sum := Summary{GameID: gameID}
	var avg sql.NullFloat64
	var wins sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.bind("SELECT COUNT(*), SUM(won), AVG(moves) FROM results WHERE game_id = ?"), gameID).
		Scan(&sum.Games, &wins, &avg)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize %s: %w", gameID, err)
	}
	sum.Wins = int(wins.Int64)
	sum.AvgMoves = avg.Float64
	return sum, nil
}

func (s *Service) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r         Record
		createdAt string
		name      sql.NullString
		player    sql.NullString
		runID     sql.NullString
		won       int
	)
	if err := row.Scan(&r.ID, &createdAt, &r.GameID, &name, &r.Seed, &player, &r.Moves, &won, &runID); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("bad timestamp %q in result %s: %w", createdAt, r.ID, err)
	}
	r.CreatedAt = t
	r.GameName = name.String
	r.Player = player.String
	r.RunID = runID.String
	r.Won = won != 0
	return r, nil
}
