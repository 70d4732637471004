package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	return &engine.GameState{
		GameSize:      3,
		Board:         [][]int{{1, 0, 0}, {0, 2, 0}, {0, 0, 11}},
		TotalScore:    20,
		TurnsPlayed:   4,
		MaxPower:      11,
		MaxTile:       2048,
		FreeCells:     6,
		Message:       "Score: 20",
		PossibleMoves: []engine.Direction{engine.Up, engine.Left},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("plain status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error: 500") {
			t.Errorf("Expected 'API error: 500', got: %v", err)
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found: zz99"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session not found: zz99" {
			t.Errorf("Expected API error message, got: %v", err)
		}
	})
}

func TestClient_handleCreateSession(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "small",
			GameState:  sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{"config_id": "small"}))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Created session: ab12") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
	if body["config_id"] != "small" {
		t.Errorf("Expected config_id forwarded, got %v", body)
	}
}

func TestClient_SessionToolsRequireID(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_session":  client.handleGetSession,
		"game_state":   client.handleGameState,
		"move":         client.handleMove,
		"bulk_move":    client.handleBulkMove,
		"new_game":     client.handleNewGame,
		"turn_history": client.handleTurnHistory,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(context.Background(), callTool(name, nil))
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsError {
				t.Error("Expected tool error without session_id")
			}
		})
	}
}

func TestClient_handleMove(t *testing.T) {
	var gotPath, gotDirection string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		gotDirection = req["direction"]

		json.NewEncoder(w).Encode(service.MoveResult{
			Success: true,
			Turn: engine.TurnResult{
				Direction:  engine.Left,
				Moves:      []engine.TileMoveEvent{{TileID: 2}},
				Mergers:    []engine.TileMergerEvent{{AbsorbedID: 2, IntoID: 1, NewPower: 2}},
				Spawn:      &engine.TileSpawnEvent{Tile: engine.Tile{ID: 3, Power: 1}, Coordinates: engine.Coordinates{X: 2, Y: 2}},
				ScoreDelta: 4,
				Effective:  true,
			},
			GameState:    sampleState(),
			NewHighScore: true,
			BestScore:    20,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	args := map[string]interface{}{"session_id": "ab12", "direction": "left"}
	result, err := client.handleMove(context.Background(), callTool("move", args))
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/api/sessions/ab12/move" || gotDirection != "left" {
		t.Errorf("Unexpected request %s %q", gotPath, gotDirection)
	}

	text := resultText(t, result)
	for _, want := range []string{"left: 1 moved, 1 merged, +4", "spawned 2 at (2,2)", "New best score: 20", "2048"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleBulkMove(t *testing.T) {
	var moves []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Moves []string `json:"moves"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		moves = req.Moves

		state := sampleState()
		state.GameOver = true
		json.NewEncoder(w).Encode(service.BulkMoveResult{
			MovesExecuted:  2,
			RequestedMoves: 3,
			EffectiveMoves: 2,
			StoppedReason:  "game over",
			StopReasonCode: service.StopGameOver,
			StoppedOnMove:  2,
			StartScore:     12,
			EndScore:       20,
			ScoreDelta:     8,
			GameState:      state,
			GameOver:       true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	args := map[string]interface{}{
		"session_id": "ab12",
		"moves":      []interface{}{"left", "up", 7, "right"},
	}
	result, err := client.handleBulkMove(context.Background(), callTool("bulk_move", args))
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(moves, ",") != "left,up,right" {
		t.Errorf("Expected non-string moves dropped, got %v", moves)
	}

	text := resultText(t, result)
	for _, want := range []string{"Executed 2/3 moves", "Score: 12 → 20 (+8)", "Stopped on move 2: game over", "GAME OVER"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleTurnHistory(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Turns: []service.TurnHistoryEntry{
				{TurnNumber: 2, Direction: engine.Up, Effective: false, TotalScore: 4},
				{TurnNumber: 1, Direction: engine.Left, Effective: true, ScoreDelta: 4, TotalScore: 4},
			},
			TotalTurns: 2,
			Page:       1,
			PageSize:   20,
			TotalPages: 1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	args := map[string]interface{}{"session_id": "ab12", "page": float64(1), "limit": float64(5), "order": "desc"}
	result, err := client.handleTurnHistory(context.Background(), callTool("turn_history", args))
	if err != nil {
		t.Fatal(err)
	}

	if query != "limit=5&order=desc&page=1" {
		t.Errorf("Unexpected query %q", query)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "2. up ✗ +0") || !strings.Contains(text, "1. left ✓ +4") {
		t.Errorf("Unexpected history output: %s", text)
	}
}

func TestClient_handleHighScores(t *testing.T) {
	scores := []service.HighScore{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"high_scores": scores})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, _ := client.handleHighScores(context.Background(), callTool("high_scores", nil))
	if text := resultText(t, result); !strings.Contains(text, "No finished games yet") {
		t.Errorf("Expected empty message, got %s", text)
	}

	scores = []service.HighScore{{GameSize: 4, Score: 1024, MaxTile: 128, Turns: 300, SessionID: "ab12", GamesPlayed: 3}}
	result, _ = client.handleHighScores(context.Background(), callTool("high_scores", nil))
	if text := resultText(t, result); !strings.Contains(text, "4x4: 1024 (max tile 128, 300 turns, session ab12) | 3 games played") {
		t.Errorf("Unexpected high scores output: %s", text)
	}
}

func TestClient_handleListConfigs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.ConfigInfo{
			{ConfigID: "large", Name: "Large", Description: "5x5 board", GameSize: 5, InitialTiles: 2},
		})
	}))
	defer server.Close()

	result, _ := NewClient(server.URL).handleListConfigs(context.Background(), callTool("list_configs", nil))
	text := resultText(t, result)
	if !strings.Contains(text, "Large (config_id: large)") || !strings.Contains(text, "Grid: 5x5, Initial tiles: 2") {
		t.Errorf("Unexpected configs output: %s", text)
	}
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(sampleState())

	for _, field := range []string{
		"Grid: 3x3",
		"Score: 20",
		"Turns: 4",
		"Max tile: 2048",
		"2048 |",
		"Possible moves: up, left",
		"Message: Score: 20",
	} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatGameState_GameOver(t *testing.T) {
	state := sampleState()
	state.GameOver = true

	result := formatGameState(state)
	if !strings.Contains(result, "GAME OVER") {
		t.Errorf("Expected 'GAME OVER' in result, got: %s", result)
	}
	if strings.Contains(result, "Possible moves") {
		t.Errorf("Expected no possible moves after game over, got: %s", result)
	}
}

func TestFormatTurn_NoOp(t *testing.T) {
	got := formatTurn(engine.TurnResult{Direction: engine.Down})
	if got != "down: nothing moved" {
		t.Errorf("Unexpected no-op line %q", got)
	}
}

func TestGameInstructions(t *testing.T) {
	result, err := NewClient("http://localhost:8080").handleGameInstructions(context.Background(), callTool("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{
		"GAME OBJECTIVE:",
		"TURNS:",
		"SPAWNING:",
		"3x3: 2: 80%, 4: 20%",
		"4x4: 2: 60%, 4: 30%, 8: 10%",
		"5x5: 2: 40%, 4: 40%, 8: 20%",
		"GAME OVER:",
	} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions, got: %s", content, text)
		}
	}
}
