// Package mcp exposes the solitaire REST API as Model Context Protocol tools.
//
// The client holds no game state. Every tool call is proxied to the REST
// server and its JSON response is rendered as text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: piles as text, optionally revealing face-down cards
//   - list_actions: legal actions with the indexes apply_action accepts
//   - validate_action: verdict plus the rendered condition trace
//   - apply_action, bulk_apply: take an intent string for the agent's reasoning
//   - reset_game, move_history
//   - list_games, game_rules: the SGDL source of a game
//   - recent_results: won games from the results store
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
