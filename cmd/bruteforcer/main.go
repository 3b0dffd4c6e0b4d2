// Command bruteforcer plays a session on a running server through the REST
// API until it wins or runs out of attempts. Every attempt resets the deal.
package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
)

const sessionFile = ".session"

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

// attempt is the outcome of one attempt
type attempt struct {
	Won       bool
	Moves     int
	Positions int
}

// playAttempt resets the session and plays until the game is won, the
// strategy runs out of untried actions or maxMoves is reached.
func playAttempt(ctx context.Context, c *Client, s *ExplorerStrategy, maxMoves int, delay time.Duration) (attempt, error) {
	state, err := c.Reset(ctx)
	if err != nil {
		return attempt{}, err
	}
	s.Reset()

	position := state.Text()
	var res attempt
	for res.Moves < maxMoves {
		actions, err := c.Actions(ctx)
		if err != nil {
			return res, err
		}
		action := s.NextAction(position, actions)
		if action == "" {
			logger.Debug().Int("moves", res.Moves).Msg("No untried actions left")
			break
		}

		result, err := c.Apply(ctx, action)
		if err != nil {
			return res, err
		}
		if !result.Success {
			logger.Debug().Str("action", action).Str("trace", result.Trace).Msg("Action rejected")
			continue
		}
		res.Moves++
		position = result.GameState.Text()
		if result.Won {
			res.Won = true
			break
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	res.Positions = s.Positions()
	return res, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	gameID := flag.String("game", "", "Game id (server default when empty)")
	seed := flag.Int64("seed", 0, "Deal seed for a new session (server picks when zero)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	maxMoves := flag.Int("max-moves", 3000, "Maximum moves per attempt")
	maxAttempts := flag.Int("max-attempts", 100, "Maximum attempts before giving up")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between moves in milliseconds (0 = no delay)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info().Str("url", *serverURL).Msg("Connecting to game server")
	client := NewClient(*serverURL)

	savedSessionID := *continueSession
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	resumed := false
	if savedSessionID != "" {
		info, err := client.Resume(ctx, savedSessionID)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to resume session (may be expired), creating a new one")
		} else {
			resumed = true
			logger.Info().Str("session", info.ID).Str("game", info.GameName).Int64("seed", info.Seed).Msg("Session resumed")
		}
	}
	if !resumed {
		var seedPtr *int64
		if *seed != 0 {
			seedPtr = seed
		}
		info, err := client.CreateSession(ctx, *gameID, seedPtr)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create session")
		}
		logger.Info().Str("session", info.ID).Str("game", info.GameName).Int64("seed", info.Seed).Msg("Session created")
		if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
			logger.Warn().Err(err).Msg("Failed to save session ID")
		}
	}

	strategy := NewExplorerStrategy("FOUNDATION", time.Now().UnixNano())
	delay := time.Duration(*delayMs) * time.Millisecond
	for n := 1; n <= *maxAttempts; n++ {
		res, err := playAttempt(ctx, client, strategy, *maxMoves, delay)
		if err != nil {
			logger.Fatal().Err(err).Int("attempt", n).Msg("Attempt failed")
		}
		logger.Info().Int("attempt", n).Int("moves", res.Moves).Int("positions", res.Positions).Msg("Attempt finished")
		if res.Won {
			logger.Info().Str("session", client.sessionID).Msgf("🎉 VICTORY! Game won in attempt %d with %d moves!", n, res.Moves)
			return
		}
	}

	logger.Error().Str("session", client.sessionID).Msgf("❌ Failed to win after %d attempts", *maxAttempts)
	os.Exit(1)
}
