package nylas

import "github.com/shineum/nylas-bridge/internal/message"

// Transformers are pure and signal failure by returning nil. They never
// return errors for invalid input; the calling action picks the error code.

// AttachmentConverter converts one provider attachment.
type AttachmentConverter interface {
	Transform(input *AttachmentWithMessageID) *message.Attachment
}

// InboundConverter converts a provider email to an internal message.
type InboundConverter interface {
	Transform(input *Email) *message.EmailMessage
}

// OutboundConverter converts an internal message to a provider email.
type OutboundConverter interface {
	Transform(input *message.EmailMessage) *Email
}

// WebhookConverter converts a webhook delivery to a message thread.
type WebhookConverter interface {
	Transform(input *WebhookPayload) *message.MessageThread
}
