package nylas

import (
	"log/slog"

	"github.com/shineum/nylas-bridge/internal/message"
)

// InboundTransformer converts provider emails to internal messages.
type InboundTransformer struct {
	attachments AttachmentConverter
	schema      message.Schema
}

// NewInboundTransformer returns an InboundTransformer with the default
// attachment transformer and message schema.
func NewInboundTransformer() *InboundTransformer {
	return NewInboundTransformerWith(NewAttachmentTransformer(), message.DefaultSchema())
}

// NewInboundTransformerWith returns an InboundTransformer using the given
// attachment converter and schema.
func NewInboundTransformerWith(attachments AttachmentConverter, schema message.Schema) *InboundTransformer {
	return &InboundTransformer{
		attachments: attachments,
		schema:      schema,
	}
}

// Transform returns nil when input is nil or the message fails validation.
// Attachments that fail on their own are dropped without failing the message.
func (t *InboundTransformer) Transform(input *Email) *message.EmailMessage {
	if input == nil {
		return nil
	}

	msg := &message.EmailMessage{
		ID:               input.ID,
		ReplyToMessageID: input.ReplyToMessageID,
		SendAt:           input.SendAt,
		Body:             input.Body,
		Subject:          input.Subject,
		From:             transformAddresses(input.From),
		To:               transformAddresses(input.To),
		Cc:               transformAddresses(input.Cc),
		Bcc:              transformAddresses(input.Bcc),
		ReplyTo:          transformAddresses(input.ReplyTo),
		Date:             input.Date,
	}
	if msg.From == nil {
		msg.From = []message.Address{}
	}
	if msg.To == nil {
		msg.To = []message.Address{}
	}
	if input.Attachments != nil {
		msg.Attachments = t.transformAttachments(input.Attachments, input.ID)
	}

	if err := t.schema.Struct(msg); err != nil {
		slog.Warn("provider email failed validation",
			"message_id", input.ID,
			"error", err,
		)
		return nil
	}

	return msg
}

func (t *InboundTransformer) transformAttachments(attachments []EmailAttachment, messageID string) []message.Attachment {
	out := make([]message.Attachment, 0, len(attachments))
	for _, att := range attachments {
		converted := t.attachments.Transform(&AttachmentWithMessageID{
			EmailAttachment: att,
			MessageID:       messageID,
		})
		if converted != nil {
			out = append(out, *converted)
		}
	}
	return out
}

// transformAddresses maps addresses one to one, preserving order. A nil list
// stays nil.
func transformAddresses(addresses []EmailAddress) []message.Address {
	if addresses == nil {
		return nil
	}

	out := make([]message.Address, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, message.Address{
			Email: addr.Email,
			Name:  addr.Name,
		})
	}
	return out
}
