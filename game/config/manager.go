package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/service"
	"github.com/wricardo/sgdl-solitaire/game/sgdl"
)

// Extension is the file extension of game descriptions
const Extension = ".sgdl"

var (
	ErrGameNotFound = service.ErrGameNotFound
	ErrInvalidGame  = service.ErrInvalidGame
	ErrInvalidName  = errors.New("invalid game name")
)

// DefaultGameID is preferred as the default game when present
const DefaultGameID = "klondike"

// MinimalGameID names the built-in game used when the directory has none
const MinimalGameID = "minimal"

// minimalGame is a one-suit game served when no description file loads.
// Any card may go onto any column, so every deal can be sorted out.
const minimalGame = `Minimal
# One suit, three columns, one foundation.

$cards
DECK 1 {SPADES}

$initial
COLUMN 13 FACE_ALL
COLUMN 0
COLUMN 0
FOUNDATION 0

$moves
MOVE COLUMN COLUMN
    DEST Size < 13
MOVE COLUMN FOUNDATION
    OR
        AND
            DEST Empty
            SRC Rank 1
        AND
            DESTSRC Suit match
            DESTSRC Rank ascending

$win
PILE ALL {FOUNDATION} Size == 13
`

type entry struct {
	rules  *engine.Rules
	source string
}

// Manager loads game descriptions from a directory and caches the parsed rules
type Manager struct {
	gamesDir  string
	defaultID string
	games     map[string]*entry
	mu        sync.RWMutex
}

// NewManager creates a new game description manager
func NewManager(gamesDir string) (*Manager, error) {
	if _, err := os.Stat(gamesDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("games directory does not exist: %s", gamesDir)
	}

	m := &Manager{
		gamesDir: gamesDir,
		games:    make(map[string]*entry),
	}
	if err := m.loadDefault(); err != nil {
		return nil, fmt.Errorf("failed to load default game: %w", err)
	}
	return m, nil
}

// LoadGame returns the parsed rules of a game by id
func (m *Manager) LoadGame(name string) (*engine.Rules, error) {
	e, err := m.load(name)
	if err != nil {
		return nil, err
	}
	return e.rules, nil
}

// LoadSource returns the description text of a game by id
func (m *Manager) LoadSource(name string) (string, error) {
	e, err := m.load(name)
	if err != nil {
		return "", err
	}
	return e.source, nil
}

func (m *Manager) load(name string) (*entry, error) {
	name = strings.TrimSuffix(name, Extension)

	m.mu.RLock()
	if e, exists := m.games[name]; exists {
		m.mu.RUnlock()
		return e, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if e, exists := m.games[name]; exists {
		return e, nil
	}
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.gamesDir, name+Extension))
	if err != nil {
		if os.IsNotExist(err) {
			if name == MinimalGameID {
				return m.cache(name, minimalGame)
			}
			return nil, fmt.Errorf("%w: %s", ErrGameNotFound, name)
		}
		return nil, fmt.Errorf("failed to read game file: %w", err)
	}
	return m.cache(name, string(data))
}

// cache parses source and stores it under name. Callers hold the write lock.
func (m *Manager) cache(name, source string) (*entry, error) {
	rules, err := sgdl.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGame, name, err)
	}
	e := &entry{rules: rules, source: source}
	m.games[name] = e
	return e, nil
}

// ListGames returns information about every loadable description, sorted by id
func (m *Manager) ListGames() ([]*service.GameInfo, error) {
	entries, err := os.ReadDir(m.gamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read games directory: %w", err)
	}

	var games []*service.GameInfo
	for _, f := range entries {
		if f.IsDir() || !strings.HasSuffix(f.Name(), Extension) {
			continue
		}
		id := strings.TrimSuffix(f.Name(), Extension)
		rules, err := m.LoadGame(id)
		if err != nil {
			// Skip invalid descriptions
			continue
		}
		games = append(games, Describe(f.Name(), id, rules))
	}
	sort.Slice(games, func(i, j int) bool { return games[i].GameID < games[j].GameID })
	return games, nil
}

// Describe summarizes a rule set
func Describe(filename, id string, r *engine.Rules) *service.GameInfo {
	info := &service.GameInfo{
		Filename:   filename,
		GameID:     id,
		Name:       r.Name,
		DeckSize:   r.Deck.Size(),
		Categories: r.Layout.Categories(),
		Rules:      len(r.Moves),
		AutoRules:  len(r.Auto),
	}
	if r.Layout.Draw != nil {
		info.DrawMode = r.Layout.Draw.Mode.String()
	}
	return info
}

// DefaultID returns the id of the default game
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default game by id
func (m *Manager) SetDefault(name string) error {
	if _, err := m.load(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = strings.TrimSuffix(name, Extension)
	return nil
}

// RefreshCache drops every cached description so the next load reads disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.games = make(map[string]*entry)
	m.mu.Unlock()

	return m.loadDefault()
}

// loadDefault prefers klondike, then the first loadable file, then the
// built-in minimal game
func (m *Manager) loadDefault() error {
	id := DefaultGameID
	if _, err := m.load(id); err != nil {
		id = MinimalGameID
		if games, listErr := m.ListGames(); listErr == nil && len(games) > 0 {
			id = games[0].GameID
		}
		if _, err := m.load(id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.defaultID = id
	m.mu.Unlock()
	return nil
}

// SaveGame validates a description and writes it to the games directory
func (m *Manager) SaveGame(name, source string) error {
	name = strings.TrimSuffix(name, Extension)
	if err := checkName(name); err != nil {
		return err
	}
	rules, err := sgdl.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGame, err)
	}

	if err := os.WriteFile(filepath.Join(m.gamesDir, name+Extension), []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write game file: %w", err)
	}

	m.mu.Lock()
	m.games[name] = &entry{rules: rules, source: source}
	m.mu.Unlock()
	return nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
