package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/service"
	"github.com/wricardo/sgdl-solitaire/game/store"
	"github.com/wricardo/sgdl-solitaire/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	ListActionsFunc    func(ctx context.Context, sessionID string) ([]service.ActionInfo, error)
	ValidateActionFunc func(ctx context.Context, sessionID, action string) (*service.ValidationResult, error)
	ApplyActionFunc    func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error)
	ApplyActionsFunc   func(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc          func(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string, reveal bool) (*engine.Snapshot, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Game descriptions
	ListGamesFunc func(ctx context.Context) ([]*service.GameInfo, error)
	LoadGameFunc  func(ctx context.Context, gameID string) (*service.GameDescription, error)
	SaveGameFunc  func(ctx context.Context, gameID, source string) error

	RecentResultsFunc func(ctx context.Context, limit int) ([]store.Record, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &service.SessionInfo{ID: "test-session", GameID: req.GameID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, GameID: "klondike", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) ListActions(ctx context.Context, sessionID string) ([]service.ActionInfo, error) {
	if m.ListActionsFunc != nil {
		return m.ListActionsFunc(ctx, sessionID)
	}
	return []service.ActionInfo{}, nil
}

func (m *MockGameService) ValidateAction(ctx context.Context, sessionID, action string) (*service.ValidationResult, error) {
	if m.ValidateActionFunc != nil {
		return m.ValidateActionFunc(ctx, sessionID, action)
	}
	return &service.ValidationResult{Valid: true, Action: action}, nil
}

func (m *MockGameService) ApplyAction(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
	if m.ApplyActionFunc != nil {
		return m.ApplyActionFunc(ctx, sessionID, action, reset)
	}
	return &service.MoveResult{Success: true, Action: action, GameState: &engine.Snapshot{}}, nil
}

func (m *MockGameService) ApplyActions(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkMoveResult, error) {
	if m.ApplyActionsFunc != nil {
		return m.ApplyActionsFunc(ctx, sessionID, actions, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.Snapshot{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.Snapshot{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string, reveal bool) (*engine.Snapshot, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID, reveal)
	}
	return &engine.Snapshot{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.HistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*service.GameInfo, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []*service.GameInfo{}, nil
}

func (m *MockGameService) LoadGame(ctx context.Context, gameID string) (*service.GameDescription, error) {
	if m.LoadGameFunc != nil {
		return m.LoadGameFunc(ctx, gameID)
	}
	return &service.GameDescription{GameID: gameID, Name: gameID}, nil
}

func (m *MockGameService) SaveGame(ctx context.Context, gameID, source string) error {
	if m.SaveGameFunc != nil {
		return m.SaveGameFunc(ctx, gameID, source)
	}
	return nil
}

func (m *MockGameService) RecentResults(ctx context.Context, limit int) ([]store.Record, error) {
	if m.RecentResultsFunc != nil {
		return m.RecentResultsFunc(ctx, limit)
	}
	return nil, service.ErrNoResults
}

func setupTestServer(t *testing.T, mockService *MockGameService) (*Server, *websocket.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)
	return NewServer(mockService, hub), hub
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

func int64Ptr(v int64) *int64 { return &v }

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default game",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					if req.GameID != "" || req.Seed != nil {
						t.Errorf("Expected empty request, got %+v", req)
					}
					return &service.SessionInfo{ID: "sess-123", GameID: "klondike"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with game and seed",
			requestBody: service.CreateSessionRequest{GameID: "spider", Seed: int64Ptr(42)},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					if req.GameID != "spider" || req.Seed == nil || *req.Seed != 42 {
						t.Errorf("Unexpected request %+v", req)
					}
					return &service.SessionInfo{ID: "sess-456", GameID: req.GameID, Seed: *req.Seed}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.GameID != "spider" || resp.Seed != 42 {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:        "Unknown game",
			requestBody: service.CreateSessionRequest{GameID: "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: nope", service.ErrGameNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorOf(t, w); msg != "service error" {
					t.Errorf("Expected error message 'service error', got %s", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, _ := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := func(ctx context.Context) ([]*service.SessionInfo, error) {
		return []*service.SessionInfo{
			{ID: "a", GameID: "klondike", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
			{ID: "b", GameID: "spider", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
			{ID: "c", GameID: "klondike", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
		}, nil
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		total   int
	}{
		{"default sorts by access, newest first", "", []string{"a", "c", "b"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"a", "b", "c"}, 3},
		{"limit", "?sort=created&limit=2", []string{"c", "b"}, 3},
		{"filter by game", "?game=klondike&sort=created&order=asc", []string{"a", "c"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := setupTestServer(t, &MockGameService{ListSessionsFunc: sessions})
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Total != tt.total || resp.Count != len(tt.wantIDs) {
				t.Errorf("Expected count %d of %d, got %d of %d", len(tt.wantIDs), tt.total, resp.Count, resp.Total)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Fatalf("Expected order %v, got %+v", tt.wantIDs, resp.Sessions)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: sessionID, GameID: "klondike", Moves: 4}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			return nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	if info.ID != "sess-1" || info.Moves != 4 {
		t.Errorf("Unexpected session %+v", info)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/sess-1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestGetGameState(t *testing.T) {
	mock := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string, reveal bool) (*engine.Snapshot, error) {
			return &engine.Snapshot{
				Name:  "Ladder",
				Moves: 3,
				Piles: []engine.PileView{{Name: "COLUMN[0]", Category: "COLUMN"}},
				Undealt: func() int {
					if reveal {
						return 1
					}
					return 0
				}(),
			}, nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/state?reveal=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var snap engine.Snapshot
	parseResponse(t, w, &snap)
	if snap.Name != "Ladder" || snap.Moves != 3 || snap.Undealt != 1 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/state?format=text", nil))
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text content type, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "Ladder\n") {
		t.Errorf("Unexpected text body %q", w.Body.String())
	}
}

func TestListActions(t *testing.T) {
	mock := &MockGameService{
		ListActionsFunc: func(ctx context.Context, sessionID string) ([]service.ActionInfo, error) {
			return []service.ActionInfo{
				{Index: 0, Action: "move COLUMN[0] FOUNDATION[0]"},
				{Index: 1, Action: "draw"},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/actions", nil))
	var resp struct {
		Count   int                  `json:"count"`
		Actions []service.ActionInfo `json:"actions"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Actions[1].Action != "draw" {
		t.Errorf("Unexpected actions %+v", resp)
	}
}

func TestValidate(t *testing.T) {
	mock := &MockGameService{
		ValidateActionFunc: func(ctx context.Context, sessionID, action string) (*service.ValidationResult, error) {
			if action == "fly" {
				return nil, fmt.Errorf("%w: %q", engine.ErrInvalidAction, action)
			}
			return &service.ValidationResult{
				Valid:  false,
				Action: action,
				Trace:  "destination should be empty [F]\n",
				Failed: []string{"destination should be empty"},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/validate", map[string]string{"action": "move COLUMN[0] COLUMN[1]"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.ValidationResult
	parseResponse(t, w, &resp)
	if resp.Valid || len(resp.Failed) != 1 {
		t.Errorf("Unexpected validation %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/validate", map[string]string{"action": "fly"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed action, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/validate", map[string]string{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing action, got %d", w.Code)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Applied action",
			requestBody: map[string]any{"action": "0"},
			setupMock: func(m *MockGameService) {
				m.ApplyActionFunc = func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
					if action != "0" || reset {
						t.Errorf("Unexpected call: %q reset=%v", action, reset)
					}
					return &service.MoveResult{
						Success:   true,
						Action:    "move COLUMN[0] FOUNDATION[0]",
						AutoMoves: []string{"move COLUMN[1] FOUNDATION[0]"},
						GameState: &engine.Snapshot{Moves: 2},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success || len(resp.AutoMoves) != 1 || resp.GameState.Moves != 2 {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name:        "Rejected action is not an HTTP error",
			requestBody: map[string]any{"action": "move COLUMN[0] COLUMN[1]"},
			setupMock: func(m *MockGameService) {
				m.ApplyActionFunc = func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
					return &service.MoveResult{
						Success:   false,
						Action:    action,
						Message:   "action rejected",
						Failed:    []string{"destination should be empty"},
						GameState: &engine.Snapshot{},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if resp.Success || len(resp.Failed) != 1 {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name:        "Reset flag is forwarded",
			requestBody: map[string]any{"action": "draw", "reset": true},
			setupMock: func(m *MockGameService) {
				m.ApplyActionFunc = func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
					if !reset {
						t.Error("Expected reset to be true")
					}
					return &service.MoveResult{Success: true, Action: action, GameState: &engine.Snapshot{Moves: 1}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing action",
			requestBody:    map[string]any{"invalid": "field"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Index out of range",
			requestBody: map[string]any{"action": "99"},
			setupMock: func(m *MockGameService) {
				m.ApplyActionFunc = func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("%w: index 99 out of range", engine.ErrInvalidAction)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Session not found",
			requestBody: map[string]any{"action": "draw"},
			setupMock: func(m *MockGameService) {
				m.ApplyActionFunc = func(ctx context.Context, sessionID, action string, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorOf(t, w); !strings.Contains(msg, "session not found") {
					t.Errorf("Unexpected error %q", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, _ := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-123/apply", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestBulkApply(t *testing.T) {
	mock := &MockGameService{
		ApplyActionsFunc: func(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkMoveResult, error) {
			if len(actions) != 3 || actions[2] != "draw" {
				t.Errorf("Unexpected actions %v", actions)
			}
			return &service.BulkMoveResult{
				MovesExecuted:  2,
				RequestedMoves: 3,
				StoppedReason:  "game_won",
				StoppedOnMove:  2,
				Won:            true,
				Success:        true,
				GameState:      &engine.Snapshot{Moves: 2},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/bulk-apply", map[string]any{
		"actions": []string{"0", "0", "draw"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.MovesExecuted != 2 || resp.StoppedReason != "game_won" || !resp.Won {
		t.Errorf("Unexpected result %+v", resp)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions/sess-1/bulk-apply", strings.NewReader("{not json"))
	server.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid body, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	called := false
	mock := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
			called = true
			return &engine.Snapshot{Name: "Ladder"}, nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/reset", nil))
	if w.Code != http.StatusOK || !called {
		t.Fatalf("Expected reset to succeed, got %d (called=%v)", w.Code, called)
	}
	var resp struct {
		Message string          `json:"message"`
		State   engine.Snapshot `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State.Name != "Ladder" {
		t.Errorf("Unexpected state %+v", resp.State)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantOpts service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values ignored", "?page=-1&limit=abc&order=up", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mock := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Moves: []engine.HistoryEntry{{Step: 1, Action: "draw", Applied: true}}}, nil
				},
			}
			server, _ := setupTestServer(t, mock)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.wantOpts {
				t.Errorf("Expected options %+v, got %+v", tt.wantOpts, got)
			}
		})
	}
}

// Game Description Tests

func TestGames(t *testing.T) {
	var saved string
	mock := &MockGameService{
		ListGamesFunc: func(ctx context.Context) ([]*service.GameInfo, error) {
			return []*service.GameInfo{{GameID: "klondike", Name: "Klondike", DeckSize: 52}}, nil
		},
		LoadGameFunc: func(ctx context.Context, gameID string) (*service.GameDescription, error) {
			if gameID != "klondike" {
				return nil, fmt.Errorf("%w: %s", service.ErrGameNotFound, gameID)
			}
			return &service.GameDescription{GameID: gameID, Name: "Klondike", Source: "NAME Klondike\n"}, nil
		},
		SaveGameFunc: func(ctx context.Context, gameID, source string) error {
			if strings.Contains(source, "garbage") {
				return fmt.Errorf("%w: unexpected token", service.ErrInvalidGame)
			}
			saved = source
			return nil
		},
	}
	server, _ := setupTestServer(t, mock)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/games", nil))
	var games []*service.GameInfo
	parseResponse(t, w, &games)
	if len(games) != 1 || games[0].DeckSize != 52 {
		t.Errorf("Unexpected games %+v", games)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/games/klondike?format=sgdl", nil))
	if w.Body.String() != "NAME Klondike\n" {
		t.Errorf("Unexpected source %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/games/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("PUT", "/api/games/mine", strings.NewReader("NAME Mine\n")))
	if w.Code != http.StatusCreated || saved != "NAME Mine\n" {
		t.Errorf("Expected save to succeed, got %d (saved %q)", w.Code, saved)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("PUT", "/api/games/mine", strings.NewReader("garbage")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid description, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("PUT", "/api/games/mine", strings.NewReader("")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty body, got %d", w.Code)
	}
}

func TestResults(t *testing.T) {
	server, _ := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/results", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without a store, got %d", w.Code)
	}

	var limit int
	server, _ = setupTestServer(t, &MockGameService{
		RecentResultsFunc: func(ctx context.Context, l int) ([]store.Record, error) {
			limit = l
			return []store.Record{{ID: "r1", GameID: "klondike", Won: true}}, nil
		},
	})
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/results?limit=5", nil))
	var records []store.Record
	parseResponse(t, w, &records)
	if limit != 5 || len(records) != 1 || !records[0].Won {
		t.Errorf("Unexpected results %+v (limit %d)", records, limit)
	}
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, _ := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
