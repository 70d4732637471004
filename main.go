// Command mergegame runs the merge game.
//
// Subcommands:
//  1. "server" (default) – HTTP server with the REST API, the WebSocket feed and an /mcp HTTP endpoint
//  2. "mcp" – MCP stdio server; spins up an internal HTTP API if none is reachable
//  3. "play" – play in the terminal with w/a/s/d
//  4. "validate" – check every config file in the config directory
//
// Flags control host/port, config directory, best-score storage, logging,
// and optional ngrok tunneling for easy external access during development.
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/mergegame/api"
	"github.com/wricardo/mcp-training/mergegame/game/config"
	"github.com/wricardo/mcp-training/mergegame/game/highscore"
	"github.com/wricardo/mcp-training/mergegame/game/service"
	"github.com/wricardo/mcp-training/mergegame/game/session"
	"github.com/wricardo/mcp-training/mergegame/play"
	"github.com/wricardo/mcp-training/mergegame/transport/mcp"
	"github.com/wricardo/mcp-training/mergegame/transport/websocket"
	"github.com/wricardo/mcp-training/mergegame/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Merge Game Server"
)

const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	app.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if err := setupLogging(os.Stderr, cmd.String("log-level"), cmd.Bool("debug"), cmd.Bool("log-json")); err != nil {
			return ctx, err
		}
		if envErr == nil {
			log.Debug().Msg("loaded environment variables from .env file")
		} else if !errors.Is(envErr, os.ErrNotExist) {
			log.Warn().Err(envErr).Msg("error loading .env file")
		}
		return ctx, nil
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree. Flags are inherited by every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mergegame",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "score-store", Value: highscore.KindFile, Usage: "best score storage: memory, file or sqlite", Sources: cli.EnvVars("SCORE_STORE")},
			&cli.StringFlag{Name: "score-path", Value: "data", Usage: "directory for the file and sqlite score stores", Sources: cli.EnvVars("SCORE_PATH")},
			&cli.IntFlag{Name: "seed", Usage: "seed for spawns, 0 for time-based", Sources: cli.EnvVars("GAME_SEED")},
			&cli.DurationFlag{Name: "animation-delay", Value: service.DefaultAnimationDelay, Usage: "pause after each turn streamed over the WebSocket", Sources: cli.EnvVars("ANIMATION_DELAY")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "log-json", Usage: "log JSON instead of console output", Sources: cli.EnvVars("LOG_JSON")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run the MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy to; an internal one starts when unreachable", Sources: cli.EnvVars("API_URL")},
				},
				Action: runMCP,
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config id, e.g. small, classic or large"},
				},
				Action: runPlay,
			},
			{
				Name:   "validate",
				Usage:  "validate every config file in the config directory",
				Action: runValidate,
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Logs always go to w so
// stdout stays free for MCP stdio and the terminal game.
func setupLogging(w io.Writer, level string, debug, jsonOutput bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if jsonOutput {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return nil
}

// services bundles what the subcommands share
type services struct {
	game     service.GameService
	sessions *session.Manager
	scores   highscore.Store
}

func (s *services) Close() error {
	return s.scores.Close()
}

// serviceOptions are the flags the game service is built from
type serviceOptions struct {
	ConfigDir  string
	ScoreStore string
	ScorePath  string
	Seed       int64
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:  cmd.String("config-dir"),
		ScoreStore: cmd.String("score-store"),
		ScorePath:  cmd.String("score-path"),
		Seed:       int64(cmd.Int("seed")),
	}
}

// buildServices wires the config and session managers, the best-score store
// and the game service
func buildServices(opts serviceOptions) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	scores, err := highscore.Open(opts.ScoreStore, opts.ScorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open score store: %w", err)
	}

	var sessionOpts []session.Option
	if opts.Seed != 0 {
		sessionOpts = append(sessionOpts, session.WithSeed(opts.Seed))
	}
	sessionManager := session.NewManager(sessionOpts...)

	log.Debug().
		Str("config_dir", opts.ConfigDir).
		Int("configs", configManager.Count()).
		Str("score_store", opts.ScoreStore).
		Msg("services ready")

	return &services{
		game:     service.NewGameService(sessionManager, configManager, service.WithHighScoreStore(scores)),
		sessions: sessionManager,
		scores:   scores,
	}, nil
}

// newHandler combines the API server with the /mcp HTTP endpoint
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runServer starts the HTTP server and blocks until ctx is cancelled. If
// ngrok is enabled it also serves through a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	svcs, err := buildServices(serviceOptionsFrom(cmd))
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(svcs.game, hub,
		api.WithAnimationDelay(cmd.Duration("animation-delay")),
		api.WithDebugRoutes(cmd.Bool("debug")),
	)
	defer apiServer.Close()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := newHandler(apiServer, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svcs.sessions, cleanupInterval, sessionMaxAge)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, handler, cmd.String("ngrok-auth"), cmd.String("ngrok-domain")); err != nil {
				log.Error().Err(err).Msg("ngrok tunnel failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, handler http.Handler, authToken, domain string) error {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	server := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	ngrokURL := tun.URL()
	log.Info().Str("url", ngrokURL).Msg("ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := server.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("ngrok tunnel closed")
	return nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// apiReachable reports whether a merge game API answers at baseURL
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on a random loopback port and returns its
// base URL and a stop function
func startInternalAPI(gameService service.GameService) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(gameService, hub)
	httpServer := &http.Server{Handler: apiServer}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	stop := func() {
		httpServer.Close()
		apiServer.Close()
		cancel()
	}
	return "http://" + listener.Addr().String(), stop, nil
}

// runMCP runs the MCP stdio server. It reuses the API at --api-url when it
// answers and otherwise serves an internal one.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := strings.TrimRight(cmd.String("api-url"), "/")
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if apiReachable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using external HTTP server)")
	} else {
		svcs, err := buildServices(serviceOptionsFrom(cmd))
		if err != nil {
			return err
		}
		defer svcs.Close()

		internalURL, stop, err := startInternalAPI(svcs.game)
		if err != nil {
			return err
		}
		defer stop()

		baseURL = internalURL
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using internal HTTP server)")
	}

	return mcp.NewClient(baseURL).Serve()
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	svcs, err := buildServices(serviceOptionsFrom(cmd))
	if err != nil {
		return err
	}
	defer svcs.Close()

	return play.Play(ctx, os.Stdin, os.Stdout, svcs.game, cmd.String("config"))
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	results, err := validate.Dir(cmd.String("config-dir"))
	if err != nil {
		return err
	}
	if !validate.Report(cmd.Root().Writer, results) {
		return errors.New("some configurations have errors")
	}
	return nil
}
