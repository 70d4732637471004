// Package websocket streams game updates to browser viewers.
//
// A Hub groups connections by session id. The API broadcasts a Message after
// every turn, new game or reset:
//
//	{"session_id": "ab12", "event": "turn", "game_state": {...}, "turn": {...}, "data": {...}}
//
// Viewers may also play: {"action": "move", "direction": "left"} is passed to
// the MessageHandler installed with SetMessageHandler. An error returned by
// the handler goes back to that viewer as an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetMessageHandler(handler)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
