// Package webhook serves the HTTP endpoint that receives provider message
// webhooks and hands the resulting threads to a sink.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/nylas"
	"github.com/shineum/nylas-bridge/internal/response"
	"github.com/shineum/nylas-bridge/internal/sink"
)

// maxPayloadBytes caps the size of a webhook body.
const maxPayloadBytes = 10 << 20

// threadAction converts a webhook payload into a thread.
type threadAction interface {
	Execute(ctx context.Context, payload *nylas.WebhookPayload) response.Response[*message.MessageThread]
}

// downloadAction fetches attachment content.
type downloadAction interface {
	Execute(ctx context.Context, attachment *message.Attachment) response.Response[*message.Attachment]
}

// Handler handles provider webhook requests.
type Handler struct {
	action    threadAction
	downloads downloadAction
	sink      sink.Sink
}

// NewHandler creates a Handler. When downloads is nil, attachments are
// delivered with metadata only.
func NewHandler(action *nylas.HandleMessageWebhookAction, downloads *nylas.DownloadAttachmentAction, s sink.Sink) *Handler {
	h := &Handler{action: action, sink: s}
	if downloads != nil {
		h.downloads = downloads
	}
	return h
}

// newWithOverrides creates a Handler with custom actions for testing.
func newWithOverrides(action threadAction, downloads downloadAction, s sink.Sink) *Handler {
	return &Handler{action: action, downloads: downloads, sink: s}
}

// ServeHTTP answers the verification challenge on GET and processes message
// notifications on POST.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.challenge(w, r)
	case http.MethodPost:
		h.notify(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) challenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	if challenge == "" {
		http.Error(w, "missing challenge", http.StatusBadRequest)
		return
	}

	slog.Info("webhook challenge received")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		slog.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var payload nylas.WebhookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		slog.Warn("invalid webhook payload", "error", err)
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	slog.Info("webhook received",
		"webhook_id", payload.ID,
		"type", payload.Type,
		"attempt", payload.WebhookDeliveryAttempt,
	)

	result := h.action.Execute(r.Context(), &payload)
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	thread := result.Data
	if h.downloads != nil {
		h.fetchAttachments(r.Context(), thread)
	}

	if err := h.sink.Deliver(r.Context(), thread); err != nil {
		slog.Error("sink delivery failed",
			"sink", h.sink.Name(),
			"thread_id", thread.ID,
			"error", err,
		)
		http.Error(w, "delivery failed", http.StatusInternalServerError)
		return
	}

	slog.Info("thread delivered",
		"sink", h.sink.Name(),
		"thread_id", thread.ID,
		"messages", len(thread.Messages),
	)

	writeJSON(w, http.StatusOK, result)
}

// fetchAttachments downloads every attachment in place. A failed download
// leaves the attachment with metadata only.
func (h *Handler) fetchAttachments(ctx context.Context, thread *message.MessageThread) {
	for i := range thread.Messages {
		msg := &thread.Messages[i]
		for j := range msg.Attachments {
			att := &msg.Attachments[j]
			if res := h.downloads.Execute(ctx, att); !res.Success {
				slog.Warn("attachment download failed",
					"message_id", msg.ID,
					"filename", att.Filename,
					"error", res.Err(),
				)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
