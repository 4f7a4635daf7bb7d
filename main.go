// Command memorymatch starts the memory match game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from memorymatch.yaml, MEMORYMATCH_* environment variables and
// a .env file; the flags below override them.
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
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/memorymatch/api"
	"github.com/wricardo/mcp-training/memorymatch/game/assets"
	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/scores"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
	"github.com/wricardo/mcp-training/memorymatch/settings"
	"github.com/wricardo/mcp-training/memorymatch/transport/mcp"
	"github.com/wricardo/mcp-training/memorymatch/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Server"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("memorymatch failed")
	}
}

// newCommand builds the CLI. Root flags are inherited by the subcommands.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "memorymatch",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "settings file (default ./memorymatch.yaml if present)"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "games-dir", Usage: "directory of custom game files"},
			&cli.StringFlag{Name: "sessions-dir", Usage: "directory of persisted sessions"},
			&cli.BoolFlag{Name: "debug", Usage: "debug level, human readable logs"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioCommand,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// loadSettings reads the settings, applies flag overrides and configures logging
func loadSettings(cmd *cli.Command) (*settings.Settings, error) {
	s, err := settings.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, s)
	if err := s.Validate(); err != nil {
		return nil, err
	}

	settings.ConfigureLogging(s.Log)
	return s, nil
}

func applyFlags(cmd *cli.Command, s *settings.Settings) {
	if cmd.IsSet("host") {
		s.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("games-dir") {
		s.Storage.GamesDir = cmd.String("games-dir")
	}
	if cmd.IsSet("sessions-dir") {
		s.Storage.SessionsDir = cmd.String("sessions-dir")
	}
	if cmd.Bool("debug") {
		s.Log.Level = "debug"
		s.Log.Pretty = true
	}
	if cmd.Bool("ngrok") {
		s.Ngrok.Enabled = true
	}
	if token := cmd.String("ngrok-auth"); token != "" {
		s.Ngrok.Authtoken = token
	}
	if domain := cmd.String("ngrok-domain"); domain != "" {
		s.Ngrok.Domain = domain
	}
}

// app holds the wired services and everything that needs closing
type app struct {
	settings  *settings.Settings
	sessions  *session.Manager
	janitor   *session.Janitor
	service   service.GameService
	scores    *scores.SQLiteStore
	imagesDir string
}

// initializeServices wires session, custom game, score and image stores into the game service
func initializeServices(ctx context.Context, s *settings.Settings) (*app, error) {
	games, err := config.NewManager(s.Storage.GamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom game store: %w", err)
	}

	persistence, err := session.NewFilePersistence(s.Storage.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	a := &app{settings: s, sessions: sessionManager}

	var scoreStore service.ScoreStore
	if s.Storage.ScoresDSN != "" {
		store, err := scores.Open(ctx, s.Storage.ScoresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open leaderboard: %w", err)
		}
		a.scores = store
		scoreStore = store
	} else {
		log.Info().Msg("leaderboard disabled (no scores_dsn)")
	}

	imageStore, imagesDir, err := newImageStore(ctx, s.Assets)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.imagesDir = imagesDir

	a.service = service.NewGameService(sessionManager, games, scoreStore, imageStore)
	a.janitor = session.NewJanitor(sessionManager, persistence, session.JanitorConfig{
		CleanupInterval: s.Sessions.SweepInterval,
		MaxIdle:         s.Sessions.MaxIdle,
		SyncInterval:    s.Sessions.SyncInterval,
	})
	return a, nil
}

// newImageStore picks the custom game image backend. The returned directory is
// non-empty only for the local backend, which the API then serves under /images/.
func newImageStore(ctx context.Context, cfg settings.AssetSettings) (service.ImageStore, string, error) {
	switch cfg.Backend {
	case "s3":
		store, err := assets.NewS3Store(ctx, assets.S3Config{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("storing custom game images in s3")
		return store, "", nil

	case "local":
		store, err := assets.NewLocalStore(cfg.LocalDir, cfg.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	}

	log.Info().Msg("image uploads disabled")
	return nil, "", nil
}

// Close saves every session and releases the stores
func (a *app) Close() {
	if a.janitor != nil {
		if err := a.janitor.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("session janitor shutdown")
		}
	}
	if err := a.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions")
	}
	if a.scores != nil {
		if err := a.scores.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close leaderboard")
		}
	}
}

func (a *app) apiServer(hub *websocket.Hub) *api.Server {
	var opts []api.Option
	if a.imagesDir != "" {
		opts = append(opts, api.WithImagesDir(a.imagesDir))
	}
	return api.NewServer(a.service, hub, opts...)
}

// mcpHandler serves JSON-RPC MCP messages posted to /mcp
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Info().Str("version", Version).Str("mode", "server").Msg("starting " + AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer a.Close()

	if err := a.janitor.Start(); err != nil {
		return err
	}

	return runHTTPServer(ctx, a)
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp until ctx is done.
// With ngrok enabled the same handler is also served through a public tunnel.
func runHTTPServer(ctx context.Context, a *app) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := a.settings.Server.Addr()
	host := a.settings.Server.Host
	if host == "" {
		host = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s:%d", host, a.settings.Server.Port)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", a.apiServer(hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", baseURL+"/api").
			Str("websocket", "ws://"+baseURL[len("http://"):]+"/ws?session=<session_id>").
			Str("mcp", baseURL+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if a.settings.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, a.settings.Ngrok, mainRouter)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg settings.NgrokSettings, handler http.Handler) {
	if cfg.Authtoken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.Authtoken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Info().Str("version", Version).Str("mode", "stdio-mcp").Msg("starting " + AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runStdioMCP(ctx, s)
}

// runStdioMCP runs an MCP stdio server.
// It reuses an API already listening on the configured port; otherwise it starts
// an internal HTTP API on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, s *settings.Settings) error {
	externalURL := fmt.Sprintf("http://localhost:%d", s.Server.Port)
	baseURL := externalURL

	if !apiAvailable(externalURL) {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		a, err := initializeServices(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer a.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: a.apiServer(hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("addr", listener.Addr().String()).Msg("internal HTTP server for MCP stdio")
	} else {
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a memory match API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
