// Package main is the entry point for the Nylas bridge.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shineum/nylas-bridge/internal/config"
	"github.com/shineum/nylas-bridge/internal/mcpserver"
	"github.com/shineum/nylas-bridge/internal/nylas"
	"github.com/shineum/nylas-bridge/internal/sink/stdout"
	"github.com/shineum/nylas-bridge/internal/smtp"
	bridgetls "github.com/shineum/nylas-bridge/internal/tls"
	"github.com/shineum/nylas-bridge/internal/transport"
	"github.com/shineum/nylas-bridge/internal/webhook"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// shutdownTimeout bounds the webhook server drain on exit.
const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools over stdio instead of the webhook and SMTP listeners")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// stdout belongs to the protocol in MCP mode.
	var logOut io.Writer = os.Stdout
	if *mcpMode {
		logOut = os.Stderr
	}
	setupLogger(cfg.Logging.Level, logOut)

	if !cfg.NylasConfigured() {
		slog.Error("NYLAS_API_KEY and NYLAS_GRANT_ID are required")
		os.Exit(1)
	}

	sender := transport.NewHTTPSender(transport.HTTPSenderConfig{
		APIURI:  cfg.Nylas.APIURI,
		APIKey:  cfg.Nylas.APIKey,
		GrantID: cfg.Nylas.GrantID,
		Timeout: cfg.Timeout(),
	})
	send := nylas.NewSendMessageAction(sender)
	download := nylas.NewDownloadAttachmentAction(sender)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if *mcpMode {
		if err := mcpserver.New(version, send, download).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, send, download); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("nylas-bridge stopped")
}

// serve runs the webhook endpoint and, when enabled, the SMTP intake until
// ctx is cancelled or either listener fails.
func serve(ctx context.Context, cfg *config.Config, send *nylas.SendMessageAction, download *nylas.DownloadAttachmentAction) error {
	var downloads *nylas.DownloadAttachmentAction
	if cfg.Webhook.DownloadAttachments {
		downloads = download
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Webhook.Path, webhook.NewHandler(nylas.NewHandleMessageWebhookAction(), downloads, stdout.New()))

	httpServer := &http.Server{
		Addr:              cfg.Webhook.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting nylas-bridge",
		"version", version,
		"api_uri", cfg.Nylas.APIURI,
		"webhook_listen", cfg.Webhook.Listen,
		"webhook_path", cfg.Webhook.Path,
		"download_attachments", cfg.Webhook.DownloadAttachments,
		"smtp_enabled", cfg.SMTPEnabled(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}
	}()

	if cfg.SMTPEnabled() {
		tlsConfig, err := bridgetls.LoadOrGenerate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.SMTP.Domain)
		if err != nil {
			fail(err)
		} else {
			server := smtp.New(smtp.ServerConfig{
				ListenAddr:      cfg.SMTP.Listen,
				Hostname:        cfg.SMTP.Domain,
				Sender:          send,
				TLSConfig:       tlsConfig,
				AuthUsername:    cfg.SMTP.Username,
				AuthPassword:    cfg.SMTP.Password,
				MaxMessageBytes: cfg.SMTP.MaxMessageSize,
			})

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := server.ListenAndServe(ctx); err != nil {
					fail(err)
				}
			}()
		}
	}

	<-ctx.Done()
	slog.Info("initiating shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("webhook server shutdown incomplete", "error", err)
	}

	wg.Wait()
	return firstErr
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string, w io.Writer) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
