// Package smtp accepts mail over SMTP and relays it through the provider's
// send endpoint.
package smtp

import (
	"crypto/subtle"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

// errAuthFailed is returned for any credential mismatch.
var errAuthFailed = &gosmtp.SMTPError{
	Code:         535,
	EnhancedCode: gosmtp.EnhancedCode{5, 7, 8},
	Message:      "Authentication failed",
}

// Authenticator verifies SMTP AUTH credentials against the configured pair.
type Authenticator struct {
	username string
	password string
}

// NewAuthenticator creates an Authenticator with the given credentials.
// If either is empty, authentication is disabled.
func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
	}
}

// Enabled returns true if authentication credentials are configured.
func (a *Authenticator) Enabled() bool {
	return a.username != "" && a.password != ""
}

// Verify checks username and password in constant time.
func (a *Authenticator) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return errAuthFailed
	}
	return nil
}

// Mechanisms lists the SASL mechanisms offered to clients.
func (a *Authenticator) Mechanisms() []string {
	if !a.Enabled() {
		return nil
	}
	return []string{sasl.Plain}
}

// PlainServer returns a SASL PLAIN server that calls onSuccess once the
// client's credentials verify. The authorization identity is ignored.
func (a *Authenticator) PlainServer(onSuccess func()) sasl.Server {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if err := a.Verify(username, password); err != nil {
			return err
		}
		onSuccess()
		return nil
	})
}
