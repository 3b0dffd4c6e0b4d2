package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/service"
)

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir string
	games       service.GameManager
	engineOpts  []engine.Option
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, games service.GameManager, opts ...engine.Option) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir: sessionsDir,
		games:       games,
		engineOpts:  opts,
	}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	log := session.Game.Log()
	data := PersistedSessionData{
		ID:             session.ID,
		GameID:         session.GameID,
		Seed:           session.Game.Seed(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Actions:        make([]string, len(log)),
		Recorded:       session.Recorded,
	}
	for i, a := range log {
		data.Actions[i] = a.String()
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(fp.getFilePath(session.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load rebuilds a session by dealing its seed and replaying its actions
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	rules, err := fp.games.LoadGame(data.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game '%s': %w", data.GameID, err)
	}
	eng, err := engine.NewEngine(rules, fp.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	game, err := engine.NewGame(eng, data.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to deal game: %w", err)
	}

	actions := make([]engine.Action, len(data.Actions))
	for i, text := range data.Actions {
		if actions[i], err = engine.ParseAction(text); err != nil {
			return nil, fmt.Errorf("failed to parse stored action %d: %w", i+1, err)
		}
	}
	if err := game.Replay(actions); err != nil {
		return nil, fmt.Errorf("failed to replay session %s: %w", id, err)
	}

	return &service.Session{
		ID:             data.ID,
		GameID:         data.GameID,
		Game:           game,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		Recorded:       data.Recorded,
	}, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}
	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, id+".json")
}
