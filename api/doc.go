// Package api provides the HTTP REST API for the merge game.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 - Create a session ({"config_id": "small"})
//   - GET    /api/sessions                 - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}            - Get one session
//   - DELETE /api/sessions/{id}            - Delete a session
//
// Game operations:
//   - GET  /api/sessions/{id}/state        - Current board, score and possible moves
//   - POST /api/sessions/{id}/move         - One turn ({"direction": "left"})
//   - POST /api/sessions/{id}/bulk-move    - Up to 50 turns ({"moves": ["left", "up"]})
//   - POST /api/sessions/{id}/new-game     - Start over with the same config
//   - GET  /api/sessions/{id}/history      - Turn history (?page=1&limit=20&order=desc)
//
// Configuration and scores:
//   - GET  /api/configs                    - List configurations
//   - GET  /api/configs/{name}             - Load one configuration
//   - POST /api/configs                    - Save a configuration (?id= overrides the derived id)
//   - GET  /api/highscores                 - Best score per game size
//
// Streaming:
//   - GET /ws?session={id}                 - WebSocket feed of turns for a session
//
// Viewers may send {"action":"move","direction":"up"} over the socket. Those
// moves are queued per session and applied one at a time, each followed by
// the animation delay.
//
// Errors are returned as {"error": "..."}: 400 for bad input, 404 for unknown
// sessions or configs and 500 otherwise.
package api
