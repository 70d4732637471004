// Package mcp exposes the merge game to AI agents over the Model Context
// Protocol.
//
// The server is a thin client: every tool call is proxied to the REST API
// (see package api) and the JSON answer is rendered as text with an ASCII
// board. It runs over stdio.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, new_game, turn_history
//   - list_configs, high_scores, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.Serve(); err != nil {
//		log.Fatal().Err(err).Msg("mcp server stopped")
//	}
package mcp
