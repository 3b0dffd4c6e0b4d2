// Package websocket pushes session updates to browser clients.
//
// A Hub groups connections by session ID, given by the caller when the
// connection is upgraded. After every applied action the API broadcasts the
// player view of the game state as a state_update message; automatic moves
// and wins are sent as separate events. Clients do not send commands over
// the socket.
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
