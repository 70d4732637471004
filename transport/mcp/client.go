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

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

var directionEnum = []string{"up", "right", "down", "left"}

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

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Merge Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Merge Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the tiles on a square grid (3x3 to 5x5). Equal tiles that collide merge into one tile of double value and the merged value is added to your score. A new tile appears after every turn that changed the grid. The game ends when no direction can change the grid.

AVAILABLE TOOLS:
- create_session: Start a session (optionally with a config_id from list_configs)
- list_sessions / get_session: Inspect sessions
- game_state: Current board, score and possible moves
- move: One turn (up/right/down/left)
- bulk_move: Up to 50 turns in one call; stops at game over
- new_game: Start over in the same session
- turn_history: Past turns of the current game
- list_configs: Available grid sizes and variants
- high_scores: Best score per grid size
- game_instructions: Rules in detail`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: sessionSchema(nil),
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and possible moves",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: sessionSchema(nil),
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide every tile in one direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: sessionSchema(map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to slide",
				},
			}),
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Play up to %d turns in sequence; stops when the game ends", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: sessionSchema(map[string]interface{}{
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Directions, applied in order",
				},
			}),
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Start a new game in the session with the same config",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: sessionSchema(nil),
			Required:   []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turns of the current game, newest first unless order is asc",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: sessionSchema(map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
			}),
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_scores",
		Description: "Best finished game per grid size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHighScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Serve runs the MCP server over stdio until stdin closes
func (c *Client) Serve() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(args map[string]interface{}, suffix string) (string, bool) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", false
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, true
}

func errSessionRequired() *mcp.CallToolResult {
	return mcp.NewToolResultError("session_id is required")
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
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
		score := 0
		if s.GameState != nil {
			score = s.GameState.TotalScore
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Created: %s)\n",
			s.ID, s.ConfigName, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "")
	if !ok {
		return errSessionRequired(), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/state")
	if !ok {
		return errSessionRequired(), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/move")
	if !ok {
		return errSessionRequired(), nil
	}
	direction, _ := args["direction"].(string)

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/bulk-move")
	if !ok {
		return errSessionRequired(), nil
	}

	movesRaw, _ := args["moves"].([]interface{})
	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]interface{}{"moves": moves}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(&result)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := sessionPath(arguments(request), "/new-game")
	if !ok {
		return errSessionRequired(), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, ok := sessionPath(args, "/history")
	if !ok {
		return errSessionRequired(), nil
	}

	query := url.Values{}
	if page, ok := args["page"].(float64); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		query.Set("order", order)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Initial tiles: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.GameSize, cfg.GameSize, cfg.InitialTiles)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleHighScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		HighScores []service.HighScore `json:"high_scores"`
	}
	if err := c.apiCall(ctx, "GET", "/api/highscores", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.HighScores) == 0 {
		return mcp.NewToolResultText("No finished games yet."), nil
	}

	var b strings.Builder
	b.WriteString("High Scores:\n\n")
	for _, hs := range response.HighScores {
		fmt.Fprintf(&b, "%dx%d: %d (max tile %d, %d turns, session %s) | %d games played\n",
			hs.GameSize, hs.GameSize, hs.Score, hs.MaxTile, hs.Turns, hs.SessionID, hs.GamesPlayed)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions()), nil
}

func gameInstructions() string {
	var b strings.Builder
	b.WriteString(`Merge Game - Instructions

GAME OBJECTIVE:
Reach the highest score you can before the grid locks up.

TURNS:
• Every turn slides all tiles toward one side: up, right, down or left.
• A tile slides until it hits the edge or another tile.
• Two tiles of the same value that collide merge into one tile of double value.
• A tile created by a merge cannot merge again in the same turn.
• The merged value is added to your score.
• A turn that moves nothing is a no-op: no tile spawns and the turn does not count.

SPAWNING:
After each turn that changed the grid, one tile appears on a random free cell.
Spawn odds depend on the grid size:
`)
	for _, size := range engine.SupportedGameSizes() {
		weights, err := engine.DefaultSpawnWeights(size)
		if err != nil {
			continue
		}
		total := 0
		for _, w := range weights {
			total += w.Weight
		}
		parts := make([]string, 0, len(weights))
		for _, w := range weights {
			parts = append(parts, fmt.Sprintf("%d: %d%%", 1<<w.Power, w.Weight*100/total))
		}
		fmt.Fprintf(&b, "• %dx%d: %s\n", size, size, strings.Join(parts, ", "))
	}
	b.WriteString(`
GAME OVER:
The game ends when no direction can change the grid: it is full and no two
neighbours share a value. Your score is then compared with the best score for
that grid size.

TIPS:
• Keep your biggest tile in a corner and build toward it.
• Prefer two directions and use a third only when needed.
• Check possible_moves in game_state before a bulk_move.
• bulk_move stops early when the game ends.

Good luck!`)
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nGames played: %d\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.GamesPlayed,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grid: %dx%d | Score: %d | Turns: %d | Max tile: %d | Free cells: %d\n\n",
		state.GameSize, state.GameSize, state.TotalScore, state.TurnsPlayed, state.MaxTile, state.FreeCells)
	b.WriteString(engine.RenderBoard(state.Board))

	if state.GameOver {
		b.WriteString("\nGAME OVER")
	} else if len(state.PossibleMoves) > 0 {
		moves := make([]string, len(state.PossibleMoves))
		for i, d := range state.PossibleMoves {
			moves[i] = string(d)
		}
		fmt.Fprintf(&b, "\nPossible moves: %s", strings.Join(moves, ", "))
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatTurn(turn engine.TurnResult) string {
	if !turn.Effective {
		return fmt.Sprintf("%s: nothing moved", turn.Direction)
	}
	line := fmt.Sprintf("%s: %d moved, %d merged, +%d", turn.Direction, len(turn.Moves), len(turn.Mergers), turn.ScoreDelta)
	if turn.Spawn != nil {
		line += fmt.Sprintf(", spawned %d at (%d,%d)", turn.Spawn.Tile.Value(), turn.Spawn.Coordinates.X, turn.Spawn.Coordinates.Y)
	}
	return line
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(formatTurn(result.Turn) + "\n")

	if result.NewHighScore {
		fmt.Fprintf(&b, "New best score: %d\n", result.BestScore)
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d/%d moves (%d effective) | Score: %d → %d (+%d)\n",
		result.MovesExecuted, result.RequestedMoves, result.EffectiveMoves,
		result.StartScore, result.EndScore, result.ScoreDelta)

	if result.Truncated {
		fmt.Fprintf(&b, "Only the first %d moves were played\n", result.Limit)
	}
	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	if result.NewHighScore {
		fmt.Fprintf(&b, "New best score: %d\n", result.BestScore)
	}

	if len(result.Turns) > 0 {
		b.WriteString("\nTurns:\n")
		for i, turn := range result.Turns {
			fmt.Fprintf(&b, "%d. %s\n", i+1, formatTurn(turn))
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d, Total: %d)\n\n", history.Page, history.TotalPages, history.TotalTurns)

	for _, turn := range history.Turns {
		status := "✓"
		if !turn.Effective {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s +%d [Score: %d]", turn.TurnNumber, turn.Direction, status, turn.ScoreDelta, turn.TotalScore)
		if turn.GameOver {
			b.WriteString(" game over")
		}
		b.WriteString("\n")
	}

	if history.HasNext {
		b.WriteString("\nMore turns on the next page.")
	}
	return b.String()
}
