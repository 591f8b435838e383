// Package transport issues requests against the provider API. It is the only
// I/O boundary used by the actions.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrEmptyBody is returned by Response.JSON when the body is empty or the
// JSON literal null.
var ErrEmptyBody = errors.New("empty response body")

// RequestOptions describes a single request. Method defaults to GET.
type RequestOptions struct {
	Method string
	Body   []byte
}

// Sender sends one request to a provider path and returns the fully read
// response. A non-nil error means no response was received at all; HTTP
// level failures are reported through Response.OK.
type Sender interface {
	Send(ctx context.Context, path string, opts RequestOptions) (*Response, error)
}

// SenderFunc adapts an ordinary function to the Sender interface.
type SenderFunc func(ctx context.Context, path string, opts RequestOptions) (*Response, error)

// Send calls f(ctx, path, opts).
func (f SenderFunc) Send(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return f(ctx, path, opts)
}

// Response is a completed provider response.
type Response struct {
	StatusCode int
	StatusText string
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte {
	return r.Body
}
