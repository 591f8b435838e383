// Package message defines the provider-agnostic email model shared by the
// transformers, the actions and every surface of the bridge.
package message

import (
	"log/slog"
)

// Address is a single mailbox. Two addresses are the same mailbox when their
// Email values are equal.
type Address struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// Attachment represents a file associated with a message.
// Path is the only way to fetch the file later; Content holds base64 text
// and stays empty until the attachment is downloaded.
type Attachment struct {
	Path               string `json:"path" validate:"required"`
	Filename           string `json:"filename" validate:"required"`
	ContentType        string `json:"contentType,omitempty"`
	ContentDisposition string `json:"contentDisposition,omitempty"`
	ContentID          string `json:"contentId,omitempty"`
	Size               int64  `json:"size,omitempty" validate:"gte=0"`
	IsInline           bool   `json:"isInline,omitempty"`
	Content            string `json:"content,omitempty" validate:"omitempty,base64"`
}

// HasContent reports whether the attachment content is already populated.
func (a *Attachment) HasContent() bool {
	return a != nil && len(a.Content) > 0
}

// EmailMessage is the canonical internal message.
//
// From and To are always non-nil once a message has been transformed.
// Cc, Bcc, ReplyTo and Attachments stay nil when the source did not carry
// them, so nil and empty mean different things.
type EmailMessage struct {
	ID               string       `json:"id,omitempty"`
	ReplyToMessageID string       `json:"replyToMessageId,omitempty"`
	SendAt           *int64       `json:"sendAt,omitempty"`
	Body             string       `json:"body"`
	Subject          string       `json:"subject"`
	From             []Address    `json:"from" validate:"required,dive"`
	To               []Address    `json:"to" validate:"required,dive"`
	Cc               []Address    `json:"cc,omitempty" validate:"omitempty,dive"`
	Bcc              []Address    `json:"bcc,omitempty" validate:"omitempty,dive"`
	ReplyTo          []Address    `json:"replyTo,omitempty" validate:"omitempty,dive"`
	Attachments      []Attachment `json:"attachments,omitempty" validate:"omitempty,dive"`
	Date             *int64       `json:"date,omitempty"`
}

// LogValue implements slog.LogValuer. Attachment content is left out since
// it can be several megabytes of base64.
func (m EmailMessage) LogValue() slog.Value {
	attachments := make([]string, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		attachments = append(attachments, att.Filename)
	}

	return slog.GroupValue(
		slog.String("id", m.ID),
		slog.String("subject", m.Subject),
		slog.Any("from", emails(m.From)),
		slog.Any("to", emails(m.To)),
		slog.Int("cc", len(m.Cc)),
		slog.Int("bcc", len(m.Bcc)),
		slog.Any("attachments", attachments),
	)
}

// MessageThread is an ordered collection of one or more messages.
type MessageThread struct {
	ID       string         `json:"id,omitempty"`
	Messages []EmailMessage `json:"messages" validate:"min=1,dive"`
}

func emails(addrs []Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Email)
	}
	return out
}
