// Package service provides the business logic layer of the merge game.
//
// The service layer sits between the transports (HTTP, WebSocket, MCP and
// the terminal adapter) and the engine. Each session owns one engine Round,
// its turn history and its game counter; the session mutex serializes turns,
// so a session never runs two turns at once.
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, replacement and lifecycle.
// ConfigManager manages game configuration loading and validation.
// HighScoreStore keeps finished games and the best score per game size.
//
// Streamed input goes through a TurnQueue, which keeps a FIFO per session and
// holds the session busy for an animation delay after each turn.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithHighScoreStore(highscore.NewMemoryStore()))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "left")
package service
