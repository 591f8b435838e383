package nylas

import (
	"fmt"
	"log/slog"

	"github.com/shineum/nylas-bridge/internal/message"
)

// attachmentPathFormat is the download path template:
// /attachments/<ATTACHMENT_ID>/download?message_id=<MESSAGE_ID>
const attachmentPathFormat = "/attachments/%s/download?message_id=%s"

// AttachmentPath returns the download path of attachment id on message
// messageID.
func AttachmentPath(id, messageID string) string {
	return fmt.Sprintf(attachmentPathFormat, id, messageID)
}

// AttachmentWithMessageID is a provider attachment together with the id of
// the message that owns it. MessageID is empty when the owner has none.
type AttachmentWithMessageID struct {
	EmailAttachment
	MessageID string
}

// AttachmentTransformer converts provider attachments to internal ones.
type AttachmentTransformer struct {
	schema message.Schema
}

// NewAttachmentTransformer returns an AttachmentTransformer validating with
// the default message schema.
func NewAttachmentTransformer() *AttachmentTransformer {
	return NewAttachmentTransformerWithSchema(message.DefaultSchema())
}

// NewAttachmentTransformerWithSchema returns an AttachmentTransformer using
// the given schema.
func NewAttachmentTransformerWithSchema(schema message.Schema) *AttachmentTransformer {
	return &AttachmentTransformer{schema: schema}
}

// Transform returns nil when input is nil or the result fails validation.
func (t *AttachmentTransformer) Transform(input *AttachmentWithMessageID) *message.Attachment {
	if input == nil {
		return nil
	}

	attachment := &message.Attachment{
		Path:               AttachmentPath(input.ID, input.MessageID),
		Filename:           input.Filename,
		ContentType:        input.ContentType,
		ContentDisposition: input.ContentDisposition,
		ContentID:          input.ContentID,
		Size:               input.Size,
		IsInline:           input.IsInline != nil && *input.IsInline,
		Content:            input.Content,
	}

	if err := t.schema.Struct(attachment); err != nil {
		slog.Debug("dropping invalid attachment",
			"attachment_id", input.ID,
			"message_id", input.MessageID,
			"error", err,
		)
		return nil
	}

	return attachment
}
