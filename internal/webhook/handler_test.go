package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/nylas"
	"github.com/shineum/nylas-bridge/internal/response"
	"github.com/shineum/nylas-bridge/internal/transport"
)

// recordingSink captures delivered threads.
type recordingSink struct {
	mu      sync.Mutex
	threads []*message.MessageThread
	err     error
}

func (s *recordingSink) Deliver(_ context.Context, thread *message.MessageThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.threads = append(s.threads, thread)
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

const messagePayload = `{
  "specversion": "1.0",
  "type": "message.created",
  "source": "/google/emails/realtime",
  "id": "wh-1",
  "time": 1700000000,
  "webhook_delivery_attempt": 1,
  "data": {
    "application_id": "app-1",
    "object": {
      "id": "msg-1",
      "grant_id": "grant-1",
      "object": "message",
      "thread_id": "thread-1",
      "subject": "Hello",
      "body": "<p>Hi</p>",
      "from": [{"email": "alice@example.com", "name": "Alice"}],
      "to": [{"email": "bob@example.com"}],
      "attachments": [
        {"id": "att-1", "filename": "notes.txt", "content_type": "text/plain", "size": 1}
      ],
      "date": 1700000000
    }
  }
}`

func newTestHandler(sender transport.Sender, s *recordingSink) *Handler {
	var downloads downloadAction
	if sender != nil {
		downloads = nylas.NewDownloadAttachmentAction(sender)
	}
	return newWithOverrides(nylas.NewHandleMessageWebhookAction(), downloads, s)
}

func TestServeHTTP_Challenge(t *testing.T) {
	t.Parallel()

	h := newTestHandler(nil, &recordingSink{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/nylas?challenge=abc123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "abc123" {
		t.Errorf("body: got %q, want %q", got, "abc123")
	}
}

func TestServeHTTP_ChallengeMissing(t *testing.T) {
	t.Parallel()

	h := newTestHandler(nil, &recordingSink{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/nylas", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestHandler(nil, &recordingSink{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/webhooks/nylas", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow: got %q, want %q", got, "GET, POST")
	}
}

func TestServeHTTP_DeliversThread(t *testing.T) {
	t.Parallel()

	s := &recordingSink{}
	h := newTestHandler(nil, s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader(messagePayload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(s.threads) != 1 {
		t.Fatalf("delivered threads: got %d, want 1", len(s.threads))
	}

	thread := s.threads[0]
	if thread.ID != "thread-1" {
		t.Errorf("thread ID: got %q, want %q", thread.ID, "thread-1")
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Subject != "Hello" {
		t.Fatalf("unexpected messages: %+v", thread.Messages)
	}
	if thread.Messages[0].Attachments[0].HasContent() {
		t.Error("attachment content should not be fetched without a downloader")
	}

	var body response.Response[*message.MessageThread]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("expected success envelope")
	}
}

func TestServeHTTP_DownloadsAttachments(t *testing.T) {
	t.Parallel()

	var gotPath string
	sender := transport.SenderFunc(func(_ context.Context, path string, _ transport.RequestOptions) (*transport.Response, error) {
		gotPath = path
		return &transport.Response{StatusCode: http.StatusOK, StatusText: "OK", Body: []byte("X")}, nil
	})

	s := &recordingSink{}
	h := newTestHandler(sender, s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader(messagePayload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	want := nylas.AttachmentPath("att-1", "msg-1")
	if gotPath != want {
		t.Errorf("download path: got %q, want %q", gotPath, want)
	}
	att := s.threads[0].Messages[0].Attachments[0]
	if att.Content != "WA==" {
		t.Errorf("attachment content: got %q, want %q", att.Content, "WA==")
	}
}

func TestServeHTTP_DownloadFailureStillDelivers(t *testing.T) {
	t.Parallel()

	sender := transport.SenderFunc(func(context.Context, string, transport.RequestOptions) (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusNotFound, StatusText: "Not Found"}, nil
	})

	s := &recordingSink{}
	h := newTestHandler(sender, s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader(messagePayload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(s.threads) != 1 {
		t.Fatalf("delivered threads: got %d, want 1", len(s.threads))
	}
	if s.threads[0].Messages[0].Attachments[0].HasContent() {
		t.Error("failed download should leave content empty")
	}
}

func TestServeHTTP_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := &recordingSink{}
	h := newTestHandler(nil, s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(s.threads) != 0 {
		t.Error("nothing should be delivered for invalid JSON")
	}
}

func TestServeHTTP_MissingObject(t *testing.T) {
	t.Parallel()

	s := &recordingSink{}
	h := newTestHandler(nil, s)

	payload := `{"specversion":"1.0","type":"message.created","id":"wh-2","data":{"application_id":"app-1"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader(payload)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var body response.Response[*message.MessageThread]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Success {
		t.Error("expected failure envelope")
	}
	if body.Code != nylas.ErrTransformationError {
		t.Errorf("code: got %q, want %q", body.Code, nylas.ErrTransformationError)
	}
	if len(s.threads) != 0 {
		t.Error("nothing should be delivered when transformation fails")
	}
}

func TestServeHTTP_SinkError(t *testing.T) {
	t.Parallel()

	s := &recordingSink{err: errors.New("sink unavailable")}
	h := newTestHandler(nil, s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/nylas", strings.NewReader(messagePayload)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestNewHandler_NilDownloads(t *testing.T) {
	t.Parallel()

	h := NewHandler(nylas.NewHandleMessageWebhookAction(), nil, &recordingSink{})
	if h.downloads != nil {
		t.Error("downloads should be nil when no download action is given")
	}
}
