package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/player"
	"github.com/wricardo/sgdl-solitaire/game/store"
)

// DefaultMaxMoves bounds a single simulated game
const DefaultMaxMoves = 1000

var ErrNoPlayer = errors.New("no player factory configured")

// Outcome explains why a simulated game ended
type Outcome string

const (
	OutcomeWon    Outcome = "won"
	OutcomeStuck  Outcome = "stuck"
	OutcomeCapped Outcome = "move_limit"
)

// Recorder stores simulated games
type Recorder interface {
	Insert(ctx context.Context, r store.Record) (store.Record, error)
}

// Config describes a batch
type Config struct {
	GameID   string
	Games    int
	Seed     int64
	Workers  int
	MaxMoves int
	// Player names the strategy in recorded results
	Player string
	// NewPlayer builds a fresh player for one game
	NewPlayer func(seed int64) player.Player
	Recorder  Recorder
	Logger    zerolog.Logger
}

// GameResult is the outcome of one simulated game
type GameResult struct {
	Index    int           `json:"index"`
	Seed     int64         `json:"seed"`
	Outcome  Outcome       `json:"outcome"`
	Moves    int           `json:"moves"`
	Duration time.Duration `json:"duration"`
}

// Stats aggregates a batch
type Stats struct {
	RunID       string        `json:"run_id"`
	GameID      string        `json:"game_id"`
	Games       int           `json:"games"`
	Wins        int           `json:"wins"`
	Stuck       int           `json:"stuck"`
	Capped      int           `json:"capped"`
	WinRate     float64       `json:"win_rate"`
	AvgMoves    float64       `json:"avg_moves"`
	AvgWinMoves float64       `json:"avg_win_moves"`
	MedianMoves int           `json:"median_moves"`
	Duration    time.Duration `json:"duration"`
	Results     []GameResult  `json:"results"`
}

// Seeds derives the per-game deal seeds of a batch
func Seeds(seed int64, n int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = rng.Int63()
	}
	return out
}

// PlayGame deals the seed and lets p play until it wins, has no move left
// or reaches maxMoves. An engine fault aborts the game.
func PlayGame(ctx context.Context, e *engine.Engine, seed int64, p player.Player, maxMoves int) (GameResult, error) {
	start := time.Now()
	res := GameResult{Seed: seed}

	g, err := engine.NewGame(e, seed)
	if err != nil {
		return res, err
	}
	for {
		if g.Won() {
			res.Outcome = OutcomeWon
			break
		}
		if g.State().Moves >= maxMoves {
			res.Outcome = OutcomeCapped
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a, ok := p.Decide(e, g.State())
		if !ok {
			res.Outcome = OutcomeStuck
			break
		}
		r, err := g.Apply(a)
		if err != nil {
			return res, fmt.Errorf("seed %d: %w", seed, err)
		}
		if !r.Applied {
			return res, fmt.Errorf("seed %d: player chose illegal action %s", seed, a)
		}
	}
	res.Moves = g.State().Moves
	res.Duration = time.Since(start)
	return res, nil
}

// RunBatch plays cfg.Games games in parallel. Game seeds come from cfg.Seed,
// so a batch is reproducible whatever the worker count.
func RunBatch(ctx context.Context, rules *engine.Rules, cfg Config, opts ...engine.Option) (*Stats, error) {
	if cfg.NewPlayer == nil {
		return nil, ErrNoPlayer
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxMoves <= 0 {
		cfg.MaxMoves = DefaultMaxMoves
	}

	e, err := engine.NewEngine(rules, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	seeds := Seeds(cfg.Seed, cfg.Games)
	results := make([]GameResult, cfg.Games)

	cfg.Logger.Info().
		Str("run", runID).
		Str("game", cfg.GameID).
		Int("games", cfg.Games).
		Int("workers", cfg.Workers).
		Msg("simulation started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, seed := range seeds {
		g.Go(func() error {
			res, err := PlayGame(gctx, e, seed, cfg.NewPlayer(seed), cfg.MaxMoves)
			if err != nil {
				return err
			}
			res.Index = i
			results[i] = res

			cfg.Logger.Debug().
				Int("game", i).
				Int64("seed", seed).
				Str("outcome", string(res.Outcome)).
				Int("moves", res.Moves).
				Msg("game finished")

			if cfg.Recorder != nil {
				_, err := cfg.Recorder.Insert(gctx, store.Record{
					GameID:   cfg.GameID,
					GameName: rules.Name,
					Seed:     seed,
					Player:   cfg.Player,
					Moves:    res.Moves,
					Won:      res.Outcome == OutcomeWon,
					RunID:    runID,
				})
				if err != nil {
					return fmt.Errorf("record game %d: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := Aggregate(results)
	stats.RunID = runID
	stats.GameID = cfg.GameID
	stats.Duration = time.Since(start)

	cfg.Logger.Info().
		Str("run", runID).
		Int("wins", stats.Wins).
		Float64("win_rate", stats.WinRate).
		Dur("elapsed", stats.Duration).
		Msg("simulation finished")
	return stats, nil
}

// Aggregate computes batch statistics
func Aggregate(results []GameResult) *Stats {
	stats := &Stats{Games: len(results), Results: results}
	if len(results) == 0 {
		return stats
	}

	moves := make([]int, len(results))
	total, winMoves := 0, 0
	for i, r := range results {
		moves[i] = r.Moves
		total += r.Moves
		switch r.Outcome {
		case OutcomeWon:
			stats.Wins++
			winMoves += r.Moves
		case OutcomeStuck:
			stats.Stuck++
		case OutcomeCapped:
			stats.Capped++
		}
	}
	sort.Ints(moves)

	stats.WinRate = float64(stats.Wins) / float64(len(results))
	stats.AvgMoves = float64(total) / float64(len(results))
	stats.MedianMoves = moves[len(moves)/2]
	if stats.Wins > 0 {
		stats.AvgWinMoves = float64(winMoves) / float64(stats.Wins)
	}
	return stats
}
