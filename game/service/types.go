package service

import (
	"time"

	"github.com/wricardo/sgdl-solitaire/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	GameID         string           `json:"game_id"`
	GameName       string           `json:"game_name"`
	Seed           int64            `json:"seed"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Moves          int              `json:"moves"`
	Won            bool             `json:"won"`
	GameState      *engine.Snapshot `json:"game_state"`
}

// CreateSessionRequest selects the game and, optionally, the deal
type CreateSessionRequest struct {
	GameID string `json:"game_id"`
	Seed   *int64 `json:"seed,omitempty"`
}

// ActionInfo is one legal action, addressable by index or text
type ActionInfo struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
}

// ValidationResult explains whether an action is legal
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Action string   `json:"action"`
	Trace  string   `json:"trace"`
	Failed []string `json:"failed,omitempty"`
}

// MoveResult contains the result of a single action
type MoveResult struct {
	Success   bool             `json:"success"`
	Action    string           `json:"action"`
	Message   string           `json:"message"`
	Trace     string           `json:"trace,omitempty"`
	Failed    []string         `json:"failed,omitempty"`
	AutoMoves []string         `json:"auto_moves,omitempty"`
	Won       bool             `json:"won"`
	GameState *engine.Snapshot `json:"game_state"`
	Events    []GameEvent      `json:"events,omitempty"`
}

// BulkMoveResult contains the result of a sequence of actions
type BulkMoveResult struct {
	MovesExecuted  int              `json:"moves_executed"`
	RequestedMoves int              `json:"requested_moves"`
	Success        bool             `json:"success"`
	StoppedReason  string           `json:"stopped_reason,omitempty"`
	StoppedOnMove  int              `json:"stopped_on_move,omitempty"`
	Truncated      bool             `json:"truncated,omitempty"`
	Limit          int              `json:"limit,omitempty"`
	Steps          []StepInfo       `json:"steps,omitempty"`
	Failed         []string         `json:"failed,omitempty"`
	Won            bool             `json:"won"`
	GameState      *engine.Snapshot `json:"game_state"`
	Events         []GameEvent      `json:"events"`
	PossibleMoves  []string         `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed action in a bulk call
type StepInfo struct {
	Idx       int      `json:"idx"`
	Action    string   `json:"action"`
	AutoMoves []string `json:"auto_moves,omitempty"`
	Won       bool     `json:"won,omitempty"`
}

// GameEvent represents something that happened during play
type GameEvent struct {
	Type      string    `json:"type"` // "move", "auto_move", "rejected", "reset", "victory"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.HistoryEntry `json:"moves"`
	TotalMoves  int                   `json:"total_moves"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrevious bool                  `json:"has_previous"`
}

// GameInfo describes one game description in the games directory
type GameInfo struct {
	Filename   string   `json:"filename"`
	GameID     string   `json:"game_id"` // The identifier to use for session creation
	Name       string   `json:"name"`    // Display name from the description
	DeckSize   int      `json:"deck_size"`
	Categories []string `json:"categories"`
	DrawMode   string   `json:"draw_mode,omitempty"`
	Rules      int      `json:"rules"`
	AutoRules  int      `json:"auto_rules"`
}

// GameDescription is the source text of a game and its parsed rules
type GameDescription struct {
	GameID string        `json:"game_id"`
	Name   string        `json:"name"`
	Source string        `json:"source"`
	Rules  *engine.Rules `json:"rules"`
}
