// Command roomhub starts the real-time presence hub.
//
// A single HTTP port serves the WebSocket presence protocol, a small REST
// surface (room introspection and avatar upload), and the static client
// app. Flags control host/port, asset directories, chat history retention,
// debug logging, and optional ngrok tunneling for easy external access
// during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"roomhub/api"
	"roomhub/avatar"
	"roomhub/config"
	"roomhub/hub"
	"roomhub/pkg/logger"
	"roomhub/presence"
	ws "roomhub/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "roomhub"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// newCommand builds the CLI. Flag defaults come from the environment (via
// config.FromEnv), so precedence is flag > environment > built-in default.
func newCommand() *cli.Command {
	def := config.FromEnv()

	return &cli.Command{
		Name:    AppName,
		Usage:   "real-time room presence and chat hub",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: def.Host, Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Value: def.Port, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "static-dir", Value: def.StaticDir, Usage: "directory served as the client app"},
			&cli.StringFlag{Name: "upload-dir", Value: def.UploadDir, Usage: "directory for uploaded avatars"},
			&cli.IntFlag{Name: "history-limit", Value: def.HistoryLimit, Usage: "chat messages retained per room"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (or NGROK_AUTHTOKEN env var)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.FromEnv()
	cfg.Host = cmd.String("host")
	cfg.Port = int(cmd.Int("port"))
	cfg.StaticDir = cmd.String("static-dir")
	cfg.UploadDir = cmd.String("upload-dir")
	cfg.HistoryLimit = int(cmd.Int("history-limit"))
	cfg.LogLevel = "info"
	if cmd.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	cfg = cfg.Sanitize()

	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Infof("starting %s v%s", AppName, Version)

	server, err := buildServer(cfg, appLog)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server,
		// No ReadTimeout/WriteTimeout: they would sever long-lived
		// WebSocket connections.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLog.Infof("HTTP server listening on %s", cfg.Addr())
		appLog.Infof("WebSocket: ws://%s/ws", cfg.Addr())
		appLog.Infof("REST API: http://%s/api", cfg.Addr())

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if tunnelEnabled(cmd) {
		go runTunnel(ctx, cmd, server, appLog)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	appLog.Infof("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLog.Infof("shutdown complete")
	return nil
}

// buildServer assembles the full stack: registry, dispatcher, avatar store,
// WebSocket transport, and the HTTP router.
func buildServer(cfg config.Config, appLog logger.Logger) (*api.Server, error) {
	store, err := avatar.NewStore(cfg.UploadDir, "/uploads", appLog)
	if err != nil {
		return nil, fmt.Errorf("avatar store: %w", err)
	}

	dispatcher := hub.NewDispatcher(presence.NewRegistry(cfg.HistoryLimit), store, appLog)
	wsServer := ws.NewServer(dispatcher, cfg.MaxMessageSize, appLog)

	return api.NewServer(dispatcher, store, wsServer.ServeWS, cfg.StaticDir, appLog), nil
}

func tunnelEnabled(cmd *cli.Command) bool {
	if cmd.Bool("ngrok") {
		return true
	}
	enabled := os.Getenv("NGROK_ENABLED")
	return enabled == "true" || enabled == "1"
}

// runTunnel provisions an ngrok tunnel and serves the same handler through
// it. Tunnel failures never take down the local server.
func runTunnel(ctx context.Context, cmd *cli.Command, handler http.Handler, appLog logger.Logger) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		appLog.Errorf("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	domain := cmd.String("ngrok-domain")
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		appLog.Errorf("failed to start ngrok tunnel: %v", err)
		return
	}
	defer tun.Close()

	appLog.Infof("ngrok tunnel established: %s", tun.URL())

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		appLog.Errorf("ngrok tunnel server stopped: %v", err)
	}
}
