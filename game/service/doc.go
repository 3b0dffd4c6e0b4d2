// Package service provides the business logic layer between the transports
// (HTTP, WebSocket, MCP) and the rule engine.
//
// GameService is the main interface. It creates sessions from game
// descriptions, lists and validates actions, applies them singly or in bulk,
// and pages through the move history. Actions are accepted in text form
// ("move COLUMN[0] FOUNDATION[1]", "draw") or as an index into the current
// list of legal actions.
//
// Every call that touches a game goes through one service mutex, since the
// engine itself holds no locks.
//
// Usage:
//
//	sessions := session.NewManager()
//	games, _ := config.NewManager("games")
//	svc := service.NewGameService(sessions, games, service.WithLogger(logger))
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{GameID: "klondike"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := svc.ApplyAction(ctx, info.ID, "draw", false)
//
// When a ResultRecorder is configured with WithResults, every won game is
// stored once per deal.
package service
