package session

import (
	"time"

	"github.com/wricardo/sgdl-solitaire/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The state is not
// stored: the seed and the applied actions rebuild it exactly.
type PersistedSessionData struct {
	ID             string    `json:"id"`
	GameID         string    `json:"game_id"`
	Seed           int64     `json:"seed"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Actions        []string  `json:"actions"`
	Recorded       bool      `json:"recorded,omitempty"`
}
