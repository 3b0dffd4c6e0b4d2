package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrInvalidGame     = errors.New("invalid game description")
	ErrNoResults       = errors.New("results store not configured")
)

// MaxBulkMoves caps the number of actions accepted by one bulk call
const MaxBulkMoves = 100

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	ListActions(ctx context.Context, sessionID string) ([]ActionInfo, error)
	ValidateAction(ctx context.Context, sessionID, action string) (*ValidationResult, error)
	ApplyAction(ctx context.Context, sessionID, action string, reset bool) (*MoveResult, error)
	ApplyActions(ctx context.Context, sessionID string, actions []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string, reveal bool) (*engine.Snapshot, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Game descriptions
	ListGames(ctx context.Context) ([]*GameInfo, error)
	LoadGame(ctx context.Context, gameID string) (*GameDescription, error)
	SaveGame(ctx context.Context, gameID, source string) error

	// Results
	RecentResults(ctx context.Context, limit int) ([]store.Record, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, gameID string, rules *engine.Rules, seed int64) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// GameManager handles game description loading
type GameManager interface {
	LoadGame(name string) (*engine.Rules, error)
	LoadSource(name string) (string, error)
	ListGames() ([]*GameInfo, error)
	DefaultID() string
	SaveGame(name, source string) error
}

// ResultRecorder stores finished games
type ResultRecorder interface {
	Insert(ctx context.Context, r store.Record) (store.Record, error)
	Recent(ctx context.Context, limit int) ([]store.Record, error)
}

// Session represents an active game session. Game is not safe for
// concurrent use; the service serializes every call that touches it.
type Session struct {
	ID             string
	GameID         string
	Game           *engine.Game
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Recorded       bool
}
