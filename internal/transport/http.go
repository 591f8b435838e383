package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// defaultTimeout applies when HTTPSenderConfig.Timeout is zero.
const defaultTimeout = 30 * time.Second

// HTTPSenderConfig holds the configuration for creating an HTTPSender.
type HTTPSenderConfig struct {
	// APIURI is the regional API host, e.g. "https://api.us.nylas.com".
	APIURI  string
	APIKey  string
	GrantID string
	Timeout time.Duration
}

// HTTPSender sends requests to the grant-scoped Nylas v3 API. Paths are
// relative to /v3/grants/{grant_id}.
type HTTPSender struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSender creates an HTTPSender authenticating with the API key as a
// bearer token.
func NewHTTPSender(cfg HTTPSenderConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = timeout

	return &HTTPSender{
		baseURL: fmt.Sprintf("%s/v3/grants/%s",
			strings.TrimRight(cfg.APIURI, "/"),
			url.PathEscape(cfg.GrantID),
		),
		httpClient: client,
	}
}

// newWithOverrides creates an HTTPSender with a custom base URL and HTTP
// client, used for testing.
func newWithOverrides(baseURL string, client *http.Client) *HTTPSender {
	return &HTTPSender{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Send performs a single request. There is no retry: a failed request is
// reported once to the caller.
func (s *HTTPSender) Send(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending provider request",
		"method", method,
		"path", path,
		"request_id", requestID,
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	slog.Debug("received provider response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"request_id", requestID,
	)

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp.StatusCode),
		Body:       data,
	}, nil
}

// statusText returns the reason phrase for code, or "HTTP <code>" for codes
// net/http does not know.
func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", code)
}
