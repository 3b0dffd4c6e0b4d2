// Command sgdl serves and plays solitaire games described in SGDL.
//
// Subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" plays a game in the terminal
//  4. "simulate" plays batches of games with a bot and reports win rates
//  5. "check" parses description files and reports errors
//
// Flags can also be set through the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/sgdl-solitaire/api"
	"github.com/wricardo/sgdl-solitaire/game/config"
	"github.com/wricardo/sgdl-solitaire/game/engine"
	"github.com/wricardo/sgdl-solitaire/game/service"
	"github.com/wricardo/sgdl-solitaire/game/session"
	"github.com/wricardo/sgdl-solitaire/game/store"
	"github.com/wricardo/sgdl-solitaire/transport/mcp"
	"github.com/wricardo/sgdl-solitaire/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "SGDL Solitaire Server"
)

const defaultAPIURL = "http://localhost:8080"

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Msg("Error loading .env file")
		}
	} else {
		logger.Info().Msg("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "sgdl",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("SGDL_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "games-dir",
				Value:   "games",
				Usage:   "Directory containing game descriptions",
				Sources: cli.EnvVars("SGDL_GAMES_DIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logger = logger.Level(zerolog.DebugLevel)
			}
			return ctx, nil
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			playCommand(),
			simulateCommand(),
			checkCommand(),
		},
	}
}

// storageFlags configure session persistence and the results database
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "Directory where sessions are persisted",
			Sources: cli.EnvVars("SGDL_SESSIONS_DIR"),
		},
		&cli.StringFlag{
			Name:    "results-dsn",
			Usage:   "Results database DSN (disabled when empty)",
			Sources: cli.EnvVars("SGDL_RESULTS_DSN"),
		},
		&cli.StringFlag{
			Name:    "results-driver",
			Value:   store.DriverSQLite,
			Usage:   "Results database driver (sqlite3 or pgx)",
			Sources: cli.EnvVars("SGDL_RESULTS_DRIVER"),
		},
	}
}

func serveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "static-dir", Usage: "Serve a web client from this directory", Sources: cli.EnvVars("SGDL_STATIC_DIR")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Remove sessions not accessed for this long"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags:   append(flags, storageFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger.Info().Str("version", Version).Msg("Starting " + AppName)
			svc, err := initializeServices(ctx, serviceOptionsFrom(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer svc.Close()
			svc.startBackground(ctx, cmd.Duration("session-ttl"))
			return runHTTPServer(ctx, cmd, svc.game)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run an MCP stdio server, starting an internal HTTP API when none is reachable",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: defaultAPIURL, Usage: "External API to use when reachable", Sources: cli.EnvVars("SGDL_API_URL")},
		}, storageFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(ctx, serviceOptionsFrom(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer svc.Close()
			return runStdioMCPWithInternalServer(ctx, cmd.String("api-url"), svc.game)
		},
	}
}

// serviceOptions selects where games, sessions and results live
type serviceOptions struct {
	GamesDir      string
	SessionsDir   string
	ResultsDriver string
	ResultsDSN    string
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		GamesDir:      cmd.String("games-dir"),
		SessionsDir:   cmd.String("sessions-dir"),
		ResultsDriver: cmd.String("results-driver"),
		ResultsDSN:    cmd.String("results-dsn"),
	}
}

// services holds everything behind the game service
type services struct {
	games       *config.Manager
	sessions    *session.Manager
	persistence *session.FilePersistence
	results     *store.Service
	game        service.GameService
}

// initializeServices wires the game description, session and results layers
// into the game service and restores persisted sessions.
func initializeServices(ctx context.Context, opts serviceOptions) (*services, error) {
	games, err := config.NewManager(opts.GamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create game manager: %w", err)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger.With().Str("component", "engine").Logger())}
	persistence, err := session.NewFilePersistence(opts.SessionsDir, games, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessions := session.NewManagerWithPersistence(persistence,
		session.WithEngineOptions(engineOpts...),
		session.WithLogger(logger.With().Str("component", "sessions").Logger()),
	)
	if err := sessions.LoadPersistedSessions(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load persisted sessions")
	}

	svc := &services{games: games, sessions: sessions, persistence: persistence}
	gameOpts := []service.Option{service.WithLogger(logger.With().Str("component", "service").Logger())}
	if opts.ResultsDSN != "" {
		results, err := store.Open(opts.ResultsDriver, opts.ResultsDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open results database: %w", err)
		}
		svc.results = results
		gameOpts = append(gameOpts, service.WithResults(results))
		logger.Info().Str("driver", opts.ResultsDriver).Msg("Recording results")
	}
	svc.game = service.NewGameService(sessions, games, gameOpts...)
	return svc, nil
}

// Close flushes sessions and closes the results database
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		logger.Warn().Err(err).Msg("Failed to save sessions")
	}
	if s.results != nil {
		if err := s.results.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close results database")
		}
	}
}

func (s *services) startBackground(ctx context.Context, ttl time.Duration) {
	go sessionCleanupRoutine(ctx, s.sessions, ttl)
	go filesystemSyncRoutine(ctx, s.sessions, s.persistence)
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info().Int("removed", removed).Msg("Cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphans(manager, persistence); pruned > 0 {
				logger.Info().Int("pruned", pruned).Msg("Filesystem sync: pruned orphaned sessions from memory")
			}
		}
	}
}

func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug().Str("session", sess.ID).Msg("Pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// newRouter mounts the API server and the /mcp endpoint
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL, staticDir string) http.Handler {
	opts := []api.Option{api.WithLogger(logger.With().Str("component", "api").Logger())}
	if staticDir != "" {
		opts = append(opts, api.WithStaticDir(staticDir))
	}
	apiServer := api.NewServer(gameService, hub, opts...)
	mcpClient := mcp.NewClient(baseURL)

	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	return router
}

// runHTTPServer serves until ctx is cancelled. When ngrok is enabled the same
// handler is also served through a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command, gameService service.GameService) error {
	hub := websocket.NewHub(websocket.WithLogger(logger.With().Str("component", "websocket").Logger()))
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := newRouter(gameService, hub, "http://"+addr, cmd.String("static-dir"))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("rest", "http://"+addr+"/api").
			Str("websocket", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msgf("HTTP server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			serveNgrok(gctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
			return nil
		})
	}

	err := g.Wait()
	logger.Info().Msg("Server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done.
// Tunnel failures are logged and never stop the local server.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}
	logger.Info().Msg("Starting ngrok tunnel...")

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info().Str("domain", domain).Msg("Using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	logger.Info().
		Str("rest", url+"/api").
		Str("websocket", url+"/ws?session=<session_id>").
		Str("mcp", url+"/mcp").
		Msgf("Ngrok tunnel established: %s", url)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Ngrok server error")
	}
	logger.Info().Msg("Ngrok tunnel closed")
}

// apiReachable reports whether an API server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(baseURL, "/") + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(ctx context.Context, gameService service.GameService) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}
	addr := listener.Addr().String()

	hub := websocket.NewHub(websocket.WithLogger(logger.With().Str("component", "websocket").Logger()))
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub, api.WithLogger(logger))}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Internal HTTP server error")
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	logger.Info().Str("addr", addr).Msg("Started internal HTTP server for MCP stdio")
	return "http://" + addr, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server against the API at
// externalURL, or against an internal API when nothing answers there.
func runStdioMCPWithInternalServer(ctx context.Context, externalURL string, gameService service.GameService) error {
	baseURL := externalURL
	if apiReachable(externalURL) {
		logger.Info().Str("url", externalURL).Msg("External API server found, using it for MCP")
	} else {
		var err error
		if baseURL, err = startInternalServer(ctx, gameService); err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
