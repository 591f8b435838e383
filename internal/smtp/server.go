package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"time"

	gosmtp "github.com/emersion/go-smtp"
)

// shutdownTimeout is the maximum time to wait for in-flight connections
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// idleTimeout bounds each read and write on a client connection.
const idleTimeout = 60 * time.Second

// ServerConfig holds the configuration for an SMTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":2525").
	ListenAddr string

	// Hostname is the server hostname used in EHLO responses.
	Hostname string

	// Sender relays every accepted message.
	Sender Sender

	// TLSConfig enables STARTTLS. If nil, STARTTLS is not advertised and
	// AUTH is allowed over plaintext.
	TLSConfig *tls.Config

	// AuthUsername and AuthPassword configure SMTP AUTH.
	// If either is empty, authentication is not required.
	AuthUsername string
	AuthPassword string

	// MaxMessageBytes caps the DATA size.
	MaxMessageBytes int64
}

// Server accepts SMTP connections and relays messages through a Sender.
type Server struct {
	config  ServerConfig
	auth    *Authenticator
	backend *backend
	smtp    *gosmtp.Server
}

// New creates a new SMTP Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}

	auth := NewAuthenticator(cfg.AuthUsername, cfg.AuthPassword)
	be := &backend{
		ctx:    context.Background(),
		auth:   auth,
		sender: cfg.Sender,
	}

	s := gosmtp.NewServer(be)
	s.Addr = cfg.ListenAddr
	s.Domain = cfg.Hostname
	s.ReadTimeout = idleTimeout
	s.WriteTimeout = idleTimeout
	s.MaxMessageBytes = cfg.MaxMessageBytes
	s.TLSConfig = cfg.TLSConfig
	s.AllowInsecureAuth = cfg.TLSConfig == nil

	return &Server{
		config:  cfg,
		auth:    auth,
		backend: be,
		smtp:    s,
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and blocks until ctx is cancelled. On
// cancellation it stops accepting and waits up to 30 seconds for in-flight
// sessions to complete.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// In-flight relays finish during graceful shutdown.
	s.backend.ctx = context.WithoutCancel(ctx)

	slog.Info("SMTP server listening",
		"addr", ln.Addr().String(),
		"auth_enabled", s.auth.Enabled(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down SMTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.smtp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown timeout reached, forcing close", "error", err)
			_ = s.smtp.Close()
		}
	}()

	err := s.smtp.Serve(ln)
	if errors.Is(err, gosmtp.ErrServerClosed) {
		return nil
	}
	return err
}
