package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/service"
	"github.com/wricardo/sgdl-solitaire/game/store"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"SGDL Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`SGDL Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Every game is a solitaire described in SGDL. Cards are written suit letter
(S, H, D, C) followed by rank (1-10, J, Q, K). Piles are named CATEGORY[index].

WORKFLOW:
1. list_games, then create_session with a game_id (and a seed to replay a deal)
2. game_state to see the layout, list_actions to see every legal action
3. apply_action with an action text or its index from list_actions
4. validate_action explains why an action would be rejected

Automatic moves run after each applied action and are reported back.
Set reveal on game_state to see face-down cards.

NOTE: The 'intent' parameter on apply_action/bulk_apply serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionArg() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Omit game_id for the default game and seed for a random deal.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"game_id": map[string]any{
					"type":        "string",
					"description": "Game to play, as listed by list_games (optional)",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Deal seed; the same seed always deals the same cards (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show every pile of the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg(),
				"reveal": map[string]any{
					"type":        "boolean",
					"description": "Show face-down cards and the draw pile order",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_actions",
		Description: "List every legal action with its index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg()},
			Required:   []string{"session_id"},
		},
	}, c.handleListActions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_action",
		Description: "Check an action without applying it and explain which conditions fail",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg(),
				"action": map[string]any{
					"type":        "string",
					"description": "Action such as 'move COLUMN[0] FOUNDATION[1]', 'move_stack COLUMN[2]:3 COLUMN[5]' or 'draw'",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleValidate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "apply_action",
		Description: "Apply one action",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg(),
				"action": map[string]any{
					"type":        "string",
					"description": "Action text or its index from list_actions",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Redeal the same cards before applying",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleApply)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_apply",
		Description: "Apply several actions in sequence, stopping at the first rejected one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg(),
				"actions": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Actions in order. Indexes refer to the legal actions at the time each one runs.",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Redeal the same cards before applying",
				},
			},
			Required: []string{"session_id", "actions"},
		},
	}, c.handleBulkApply)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Redeal the same cards and start over",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the action history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List available games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Show the SGDL description of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"game_id": map[string]any{
					"type":        "string",
					"description": "Game ID from list_games",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameRules)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "recent_results",
		Description: "List recently won games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Number of results",
				},
			},
		},
	}, c.handleRecentResults)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(args map[string]any, suffix string) string {
	id, _ := args["session_id"].(string)
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := service.CreateSessionRequest{}
	body.GameID, _ = args["game_id"].(string)
	if seed, ok := args["seed"].(float64); ok {
		s := int64(seed)
		body.Seed = &s
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatSessionInfo(&session)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.Won {
			status = "won"
		}
		fmt.Fprintf(&b, "- %s (Game: %s, Moves: %d, %s, Created: %s)\n",
			s.ID, s.GameID, s.Moves, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetArguments(), ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path := sessionPath(args, "/state")
	if reveal, _ := args["reveal"].(bool); reveal {
		path += "?reveal=true"
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleListActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                  `json:"count"`
		Actions []service.ActionInfo `json:"actions"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetArguments(), "/actions"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActions(response.Actions)), nil
}

func (c *Client) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	action, _ := args["action"].(string)

	var result service.ValidationResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/validate"), map[string]string{"action": action}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict := "LEGAL"
	if !result.Valid {
		verdict = "ILLEGAL"
	}
	text := fmt.Sprintf("%s: %s\n\n%s", verdict, result.Action, result.Trace)
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleApply(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	action, _ := args["action"].(string)
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = args["intent"]

	body := map[string]any{
		"action": action,
		"reset":  reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/apply"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkApply(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	raw, _ := args["actions"].([]any)
	reset, _ := args["reset"].(bool)
	_ = args["intent"]

	actions := make([]string, 0, len(raw))
	for _, a := range raw {
		if s, ok := a.(string); ok {
			actions = append(actions, s)
		}
	}

	body := map[string]any{
		"actions": actions,
		"reset":   reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/bulk-apply"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Message string           `json:"message"`
		State   *engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(request.GetArguments(), "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprint(int(limit)))
	}
	path := sessionPath(args, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var games []service.GameInfo
	if err := c.apiCall(ctx, "GET", "/api/games", nil, &games); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Games:\n\n")
	for _, g := range games {
		fmt.Fprintf(&b, "• %s (%s)\n  %d cards, piles: %s", g.GameID, g.Name, g.DeckSize, strings.Join(g.Categories, ", "))
		if g.DrawMode != "" {
			fmt.Fprintf(&b, ", draw: %s", g.DrawMode)
		}
		fmt.Fprintf(&b, "\n  %d move rules, %d automatic\n\n", g.Rules, g.AutoRules)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, _ := request.GetArguments()["game_id"].(string)

	var desc service.GameDescription
	if err := c.apiCall(ctx, "GET", "/api/games/"+url.PathEscape(gameID), nil, &desc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s (%s)\n\n%s", desc.Name, desc.GameID, desc.Source)), nil
}

func (c *Client) handleRecentResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/results"
	if limit, ok := request.GetArguments()["limit"].(float64); ok {
		path += fmt.Sprintf("?limit=%d", int(limit))
	}

	var records []store.Record
	if err := c.apiCall(ctx, "GET", path, nil, &records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(records) == 0 {
		return mcp.NewToolResultText("No games won yet."), nil
	}
	var b strings.Builder
	b.WriteString("Recent wins:\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s seed %d in %d moves by %s (%s)\n",
			r.GameID, r.Seed, r.Moves, r.Player, r.CreatedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	status := "in progress"
	if session.Won {
		status = "WON"
	}
	return fmt.Sprintf("Session: %s\nGame: %s (%s)\nSeed: %d\nMoves: %d\nStatus: %s\n",
		session.ID, session.GameName, session.GameID, session.Seed, session.Moves, status)
}

func formatGameState(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available\n"
	}
	var b strings.Builder
	b.WriteString(state.Text())
	fmt.Fprintf(&b, "\nMoves: %d", state.Moves)
	if state.Undealt > 0 {
		fmt.Fprintf(&b, ", undealt cards: %d", state.Undealt)
	}
	b.WriteString("\nFace-down cards are shown as [??].\n")
	return b.String()
}

func formatActions(actions []service.ActionInfo) string {
	if len(actions) == 0 {
		return "No legal actions. Reset the game or start a new session.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Legal actions (%d):\n", len(actions))
	for _, a := range actions {
		fmt.Fprintf(&b, "  %d. %s\n", a.Index, a.Action)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s\n", result.Action)
	} else {
		fmt.Fprintf(&b, "✗ %s: %s\n", result.Action, result.Message)
		if result.Trace != "" {
			b.WriteString("\n" + result.Trace)
		}
	}
	for _, auto := range result.AutoMoves {
		fmt.Fprintf(&b, "  auto: %s\n", auto)
	}
	if result.Won {
		b.WriteString("\n🎉 VICTORY! The game is won.\n")
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatBulkMoveResult(result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d of %d actions", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")

	for _, step := range result.Steps {
		fmt.Fprintf(&b, "  %d. %s\n", step.Idx, step.Action)
		for _, auto := range step.AutoMoves {
			fmt.Fprintf(&b, "     auto: %s\n", auto)
		}
	}

	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "\nStopped at action %d: %s\n", result.StoppedOnMove, result.StoppedReason)
		for _, f := range result.Failed {
			fmt.Fprintf(&b, "  failed: %s\n", f)
		}
	}
	if result.Won {
		b.WriteString("\n🎉 VICTORY! The game is won.\n")
	} else if len(result.PossibleMoves) > 0 {
		b.WriteString("\nLegal now: " + strings.Join(result.PossibleMoves, " | ") + "\n")
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d)\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		mark := "✓"
		if !m.Applied {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s", m.Step, mark, m.Action)
		if len(m.AutoMoves) > 0 {
			fmt.Fprintf(&b, " (+%d auto)", len(m.AutoMoves))
		}
		if m.Won {
			b.WriteString(" WON")
		}
		b.WriteString("\n")
	}
	return b.String()
}
