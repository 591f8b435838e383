package smtp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/parser"
	"github.com/shineum/nylas-bridge/internal/response"
)

// errAuthRequired rejects a transaction started before AUTH.
var errAuthRequired = &gosmtp.SMTPError{
	Code:         530,
	EnhancedCode: gosmtp.EnhancedCode{5, 7, 0},
	Message:      "Authentication required",
}

// errUnknownMechanism rejects AUTH with anything but PLAIN.
var errUnknownMechanism = &gosmtp.SMTPError{
	Code:         504,
	EnhancedCode: gosmtp.EnhancedCode{5, 7, 4},
	Message:      "Unsupported authentication mechanism",
}

// Sender relays a parsed message. *nylas.SendMessageAction satisfies it.
type Sender interface {
	Execute(ctx context.Context, msg *message.EmailMessage) response.Response[*message.EmailMessage]
}

// backend creates one session per SMTP connection.
type backend struct {
	ctx    context.Context
	auth   *Authenticator
	sender Sender
}

// NewSession implements gosmtp.Backend.
func (b *backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	remote := ""
	if conn := c.Conn(); conn != nil {
		remote = conn.RemoteAddr().String()
	}
	slog.Debug("SMTP connection accepted", "remote", remote)

	return &session{backend: b, remote: remote}, nil
}

// session holds one SMTP transaction at a time.
type session struct {
	backend       *backend
	remote        string
	authenticated bool

	from string
	to   []string
}

// AuthMechanisms implements gosmtp.AuthSession.
func (s *session) AuthMechanisms() []string {
	return s.backend.auth.Mechanisms()
}

// Auth implements gosmtp.AuthSession.
func (s *session) Auth(mech string) (sasl.Server, error) {
	if !s.backend.auth.Enabled() || mech != sasl.Plain {
		return nil, errUnknownMechanism
	}
	return s.backend.auth.PlainServer(func() {
		s.authenticated = true
		slog.Info("SMTP client authenticated", "remote", s.remote)
	}), nil
}

func (s *session) Mail(from string, _ *gosmtp.MailOptions) error {
	if s.backend.auth.Enabled() && !s.authenticated {
		return errAuthRequired
	}
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

// Data parses the message and relays it. Envelope recipients absent from
// the headers are added as To when the message has no To, else as Bcc.
func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read message data: %w", err)
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		slog.Warn("rejecting unparseable message", "remote", s.remote, "error", err)
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}

	applyEnvelope(msg, s.from, s.to)

	res := s.backend.sender.Execute(s.backend.ctx, msg)
	if !res.Success {
		slog.Error("relay failed",
			"remote", s.remote,
			"from", s.from,
			"recipients", len(s.to),
			"error", res.Err(),
		)
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 0, 0},
			Message:      res.Err(),
		}
	}

	slog.Info("message relayed",
		"remote", s.remote,
		"id", res.Data.ID,
		"recipients", len(s.to),
		"bytes", len(raw),
	)
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error {
	return nil
}

func applyEnvelope(msg *message.EmailMessage, from string, rcpts []string) {
	if len(msg.From) == 0 && from != "" {
		msg.From = []message.Address{{Email: from}}
	}

	seen := make(map[string]bool)
	for _, list := range [][]message.Address{msg.To, msg.Cc, msg.Bcc} {
		for _, addr := range list {
			seen[strings.ToLower(addr.Email)] = true
		}
	}

	toEmpty := len(msg.To) == 0
	for _, rcpt := range rcpts {
		key := strings.ToLower(rcpt)
		if seen[key] {
			continue
		}
		seen[key] = true
		if toEmpty {
			msg.To = append(msg.To, message.Address{Email: rcpt})
		} else {
			msg.Bcc = append(msg.Bcc, message.Address{Email: rcpt})
		}
	}
}
