// Package api serves the game service over HTTP with gorilla/mux.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 {"game_id": "klondike", "seed": 42}
//   - GET    /api/sessions                 ?sort=created|accessed&order=asc|desc&limit=N&game=ID
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET  /api/sessions/{id}/state        ?reveal=true shows face-down cards, ?format=text
//   - GET  /api/sessions/{id}/actions      legal actions with their indexes
//   - POST /api/sessions/{id}/validate     {"action": "move COLUMN[0] FOUNDATION[1]"}
//   - POST /api/sessions/{id}/apply        {"action": "draw", "reset": false}
//   - POST /api/sessions/{id}/bulk-apply   {"actions": ["0", "draw"], "reset": false}
//   - POST /api/sessions/{id}/reset
//   - GET  /api/sessions/{id}/history      ?page=1&limit=20&order=desc
//
// Games and results:
//   - GET /api/games
//   - GET /api/games/{id}                  ?format=sgdl returns the description text
//   - PUT /api/games/{id}                  body is the description text
//   - GET /api/results                     ?limit=N
//
// An action may be given in text form or as an index into the list returned
// by the actions endpoint. A rejected action is not an HTTP error: the
// response carries success=false and the evaluation trace.
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions and
// games, 400 for malformed actions and descriptions, and 503 when no results
// store is configured.
//
// Applied actions are broadcast to WebSocket clients watching the session
// (GET /ws?session=ID).
package api
