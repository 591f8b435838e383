package nylas

import (
	"encoding/base64"
	"log/slog"
	"mime"
	"path/filepath"

	"github.com/shineum/nylas-bridge/internal/message"
)

// defaultContentType is used when neither the attachment nor its filename
// tell us anything better.
const defaultContentType = "application/octet-stream"

// OutboundTransformer converts internal messages to provider emails ready to
// be sent.
type OutboundTransformer struct {
	schema message.Schema
}

// NewOutboundTransformer returns an OutboundTransformer validating with the
// default schema.
func NewOutboundTransformer() *OutboundTransformer {
	return NewOutboundTransformerWithSchema(message.DefaultSchema())
}

// NewOutboundTransformerWithSchema returns an OutboundTransformer using the
// given schema.
func NewOutboundTransformerWithSchema(schema message.Schema) *OutboundTransformer {
	return &OutboundTransformer{schema: schema}
}

// Transform returns nil when input is nil or the provider email fails
// validation. A message needs at least one To recipient, so cc-only and
// bcc-only messages are rejected. Attachment content is passed through as
// is; Size is derived from it only when it decodes as base64.
func (t *OutboundTransformer) Transform(input *message.EmailMessage) *Email {
	if input == nil {
		return nil
	}

	email := &Email{
		ReplyToMessageID: input.ReplyToMessageID,
		Attachments:      outboundAttachments(input.Attachments),
		From:             providerAddresses(input.From),
		To:               providerAddresses(input.To),
		Bcc:              providerAddresses(input.Bcc),
		Cc:               providerAddresses(input.Cc),
		Body:             input.Body,
		Subject:          input.Subject,
		SendAt:           input.SendAt,
	}
	if input.ReplyTo != nil {
		email.ReplyTo = providerAddresses(input.ReplyTo)
	}

	if err := t.schema.Struct(email); err != nil {
		slog.Warn("message failed provider validation",
			"subject", input.Subject,
			"error", err,
		)
		return nil
	}

	return email
}

// providerAddresses always returns a non-nil slice; the provider expects
// arrays, not null.
func providerAddresses(addresses []message.Address) []EmailAddress {
	out := make([]EmailAddress, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, EmailAddress{
			Email: addr.Email,
			Name:  addr.Name,
		})
	}
	return out
}

func outboundAttachments(attachments []message.Attachment) []EmailAttachment {
	out := make([]EmailAttachment, 0, len(attachments))
	for _, att := range attachments {
		out = append(out, outboundAttachment(att))
	}
	return out
}

func outboundAttachment(att message.Attachment) EmailAttachment {
	contentType := att.ContentType
	if contentType == "" {
		contentType = contentTypeFor(att.Filename)
	}

	size := att.Size
	if size == 0 && att.Content != "" {
		if decoded, err := base64.StdEncoding.DecodeString(att.Content); err == nil {
			size = int64(len(decoded))
		}
	}

	var inline *bool
	if att.IsInline {
		inline = &att.IsInline
	}

	return EmailAttachment{
		ContentDisposition: att.ContentDisposition,
		ContentID:          att.ContentID,
		ContentType:        contentType,
		Filename:           att.Filename,
		Content:            att.Content,
		IsInline:           inline,
		Size:               size,
	}
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return defaultContentType
}
