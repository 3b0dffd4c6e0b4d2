package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/store"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	games    GameManager
	results  ResultRecorder
	logger   zerolog.Logger
	mu       sync.Mutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithResults records every won game in r
func WithResults(r ResultRecorder) Option {
	return func(s *gameServiceImpl) {
		s.results = r
	}
}

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *gameServiceImpl) {
		s.logger = l
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, games GameManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		games:    games,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession deals a new game. An empty game id selects the default game
// and a nil seed draws one from the clock.
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gameID := req.GameID
	if gameID == "" {
		gameID = s.games.DefaultID()
	}
	rules, err := s.games.LoadGame(gameID)
	if err != nil {
		if errors.Is(err, ErrGameNotFound) {
			if infos, listErr := s.games.ListGames(); listErr == nil && len(infos) > 0 {
				ids := make([]string, len(infos))
				for i, info := range infos {
					ids[i] = info.GameID
				}
				return nil, fmt.Errorf("game '%s' not found, available games: %v: %w", gameID, ids, err)
			}
		}
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sess, err := s.sessions.Create("", gameID, rules, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info().Str("session", sess.ID).Str("game", gameID).Int64("seed", seed).Msg("session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return nil
}

// ListActions enumerates the legal actions in rule declaration order
func (s *gameServiceImpl) ListActions(ctx context.Context, sessionID string) ([]ActionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return actionInfos(sess.Game.Actions()), nil
}

// ValidateAction judges an action without applying it
func (s *gameServiceImpl) ValidateAction(ctx context.Context, sessionID, action string) (*ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	a, err := resolveAction(sess.Game, action)
	if err != nil {
		return nil, err
	}
	ok, trace := sess.Game.Validate(a)
	res := &ValidationResult{Valid: ok, Action: a.String(), Trace: trace.Render()}
	if !ok {
		res.Failed = trace.Failed()
	}
	return res, nil
}

// ApplyAction applies one action, given as text or as an index into the
// current ListActions result
func (s *gameServiceImpl) ApplyAction(ctx context.Context, sessionID, action string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	// Work on a fork so a failed call leaves the session as it was
	game := sess.Game.Fork()
	events := []GameEvent{}
	if reset {
		if err := game.Reset(); err != nil {
			return nil, err
		}
		events = append(events, event("reset", "Game reset to initial deal"))
	}

	a, err := resolveAction(game, action)
	if err != nil {
		return nil, err
	}
	res, err := game.Apply(a)
	if err != nil {
		s.logger.Error().Err(err).Str("session", sessionID).Str("action", a.String()).Msg("engine fault")
		return nil, err
	}
	sess.Game = game
	if reset {
		sess.Recorded = false
	}

	snap := sess.Game.State().Snapshot(false)
	result := &MoveResult{
		Success:   res.Applied,
		Action:    a.String(),
		Won:       res.Won,
		GameState: &snap,
	}
	if res.Applied {
		result.Message = fmt.Sprintf("Applied %s", a)
		result.AutoMoves = actionStrings(res.AutoMoves)
		events = append(events, s.moveEvents(a, res)...)
		s.record(ctx, sess)
	} else {
		result.Message = fmt.Sprintf("Rejected %s", a)
		result.Trace = res.Trace.Render()
		result.Failed = res.Trace.Failed()
		events = append(events, event("rejected", result.Message))
	}
	result.Events = events

	s.persist(sessionID, "move")
	return result, nil
}

// ApplyActions applies a sequence of actions, stopping at the first
// rejection or once the game is won
func (s *gameServiceImpl) ApplyActions(ctx context.Context, sessionID string, actions []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(actions),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}
	game := sess.Game.Fork()
	if reset {
		if err := game.Reset(); err != nil {
			return nil, err
		}
		result.Events = append(result.Events, event("reset", "Game reset to initial deal"))
	}

	// Limit actions to prevent abuse
	if len(actions) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		actions = actions[:MaxBulkMoves]
	}

	for i, text := range actions {
		if game.Won() {
			result.StoppedReason = "game_won"
			result.StoppedOnMove = i + 1
			break
		}
		a, err := resolveAction(game, text)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("action %d: %v", i+1, err)
			result.StoppedOnMove = i + 1
			break
		}
		res, err := game.Apply(a)
		if err != nil {
			s.logger.Error().Err(err).Str("session", sessionID).Str("action", a.String()).Msg("engine fault")
			return nil, err
		}
		if !res.Applied {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("action %d rejected: %s", i+1, a)
			result.StoppedOnMove = i + 1
			result.Failed = res.Trace.Failed()
			result.Events = append(result.Events, event("rejected", fmt.Sprintf("Rejected %s", a)))
			break
		}

		result.MovesExecuted++
		result.Events = append(result.Events, s.moveEvents(a, res)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:       i + 1,
			Action:    a.String(),
			AutoMoves: actionStrings(res.AutoMoves),
			Won:       res.Won,
		})
	}

	sess.Game = game
	if reset {
		sess.Recorded = false
	}

	snap := sess.Game.State().Snapshot(false)
	result.GameState = &snap
	result.Won = sess.Game.Won()
	if !result.Won {
		result.PossibleMoves = actionStrings(sess.Game.Actions())
	}
	s.record(ctx, sess)
	s.persist(sessionID, "bulk move")
	return result, nil
}

// Reset re-deals a session from its seed
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Game.Reset(); err != nil {
		return nil, err
	}
	sess.Recorded = false
	s.persist(sessionID, "reset")

	snap := sess.Game.State().Snapshot(false)
	return &snap, nil
}

// GetGameState returns the player view, or the full state when reveal is set
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string, reveal bool) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Game.State().Snapshot(reveal)
	return &snap, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Game.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListGames returns the available game descriptions
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	return s.games.ListGames()
}

// LoadGame returns a game description with its parsed rules
func (s *gameServiceImpl) LoadGame(ctx context.Context, gameID string) (*GameDescription, error) {
	rules, err := s.games.LoadGame(gameID)
	if err != nil {
		return nil, err
	}
	source, err := s.games.LoadSource(gameID)
	if err != nil {
		return nil, err
	}
	return &GameDescription{GameID: gameID, Name: rules.Name, Source: source, Rules: rules}, nil
}

// SaveGame validates and stores a game description
func (s *gameServiceImpl) SaveGame(ctx context.Context, gameID, source string) error {
	return s.games.SaveGame(gameID, source)
}

// RecentResults lists the latest recorded results
func (s *gameServiceImpl) RecentResults(ctx context.Context, limit int) ([]store.Record, error) {
	if s.results == nil {
		return nil, ErrNoResults
	}
	return s.results.Recent(ctx, limit)
}

func (s *gameServiceImpl) get(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	snap := sess.Game.State().Snapshot(false)
	return &SessionInfo{
		ID:             sess.ID,
		GameID:         sess.GameID,
		GameName:       sess.Game.Engine().Rules().Name,
		Seed:           sess.Game.Seed(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Moves:          sess.Game.State().Moves,
		Won:            sess.Game.Won(),
		GameState:      &snap,
	}
}

func (s *gameServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Str("op", op).Msg("failed to persist session")
	}
}

// record stores a won game once per deal
func (s *gameServiceImpl) record(ctx context.Context, sess *Session) {
	if s.results == nil || sess.Recorded || !sess.Game.Won() {
		return
	}
	rec, err := s.results.Insert(ctx, store.Record{
		GameID:   sess.GameID,
		GameName: sess.Game.Engine().Rules().Name,
		Seed:     sess.Game.Seed(),
		Player:   "session:" + sess.ID,
		Moves:    sess.Game.State().Moves,
		Won:      true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID).Msg("failed to record result")
		return
	}
	sess.Recorded = true
	s.logger.Info().Str("session", sess.ID).Str("result", rec.ID).Msg("game won")
}

func (s *gameServiceImpl) moveEvents(a engine.Action, res engine.Result) []GameEvent {
	events := []GameEvent{event("move", fmt.Sprintf("Applied %s", a))}
	for _, auto := range res.AutoMoves {
		events = append(events, event("auto_move", fmt.Sprintf("Automatic %s", auto)))
	}
	if res.Won {
		events = append(events, event("victory", "Victory! The win condition holds"))
	}
	return events
}

// resolveAction accepts either the text form of an action or its index in
// the current legal action list
func resolveAction(g *engine.Game, text string) (engine.Action, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		actions := g.Actions()
		if n < 0 || n >= len(actions) {
			return engine.Action{}, fmt.Errorf("%w: index %d out of range, %d legal actions", engine.ErrInvalidAction, n, len(actions))
		}
		return actions[n], nil
	}
	return engine.ParseAction(text)
}

func actionInfos(actions []engine.Action) []ActionInfo {
	out := make([]ActionInfo, len(actions))
	for i, a := range actions {
		out[i] = ActionInfo{Index: i, Action: a.String()}
	}
	return out
}

func actionStrings(actions []engine.Action) []string {
	if len(actions) == 0 {
		return nil
	}
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}

func event(kind, msg string) GameEvent {
	return GameEvent{Type: kind, Message: msg, Timestamp: time.Now()}
}
