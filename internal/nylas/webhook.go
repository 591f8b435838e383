package nylas

import (
	"log/slog"

	"github.com/shineum/nylas-bridge/internal/message"
)

// WebhookTransformer folds a message webhook into a single-message thread.
type WebhookTransformer struct {
	emails InboundConverter
}

// NewWebhookTransformer returns a WebhookTransformer using the default
// inbound transformer.
func NewWebhookTransformer() *WebhookTransformer {
	return NewWebhookTransformerWith(NewInboundTransformer())
}

// NewWebhookTransformerWith returns a WebhookTransformer using the given
// inbound converter.
func NewWebhookTransformerWith(emails InboundConverter) *WebhookTransformer {
	return &WebhookTransformer{emails: emails}
}

// Transform returns nil when the payload carries no usable message. The
// provider delivers one message per webhook, so the thread always holds
// exactly one message.
func (t *WebhookTransformer) Transform(input *WebhookPayload) *message.MessageThread {
	if input == nil || input.Data.Object == nil {
		return nil
	}

	msg := t.emails.Transform(input.Data.Object)
	if msg == nil {
		slog.Debug("webhook object did not transform",
			"webhook_id", input.ID,
			"type", input.Type,
		)
		return nil
	}

	return &message.MessageThread{
		ID:       input.Data.Object.ThreadID,
		Messages: []message.EmailMessage{*msg},
	}
}
