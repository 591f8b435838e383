package nylas

import (
	"context"
	"log/slog"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/response"
)

// HandleMessageWebhookAction turns a message webhook into a message thread.
type HandleMessageWebhookAction struct {
	webhooks WebhookConverter
}

// NewHandleMessageWebhookAction creates a HandleMessageWebhookAction with
// the default webhook transformer.
func NewHandleMessageWebhookAction() *HandleMessageWebhookAction {
	return NewHandleMessageWebhookActionWith(NewWebhookTransformer())
}

// NewHandleMessageWebhookActionWith creates a HandleMessageWebhookAction
// with a custom webhook converter.
func NewHandleMessageWebhookActionWith(webhooks WebhookConverter) *HandleMessageWebhookAction {
	return &HandleMessageWebhookAction{webhooks: webhooks}
}

// Execute transforms payload. It performs no I/O.
func (a *HandleMessageWebhookAction) Execute(_ context.Context, payload *WebhookPayload) response.Response[*message.MessageThread] {
	thread := a.webhooks.Transform(payload)
	if thread == nil || len(thread.Messages) == 0 {
		attrs := []any{}
		if payload != nil {
			attrs = append(attrs, "webhook_id", payload.ID, "type", payload.Type)
		}
		slog.Error("failed to transform webhook payload to message thread", attrs...)
		return response.Error[*message.MessageThread](ErrTransformationError, "Failed to transform webhook payload to message thread")
	}

	return response.OK(thread)
}
