// Package nylas adapts the Nylas v3 email wire format to the internal
// message model and drives the send, attachment download and webhook flows.
package nylas

// EmailAttachment is an attachment as the provider sends and returns it.
type EmailAttachment struct {
	ContentDisposition string `json:"content_disposition,omitempty"`
	ContentID          string `json:"content_id,omitempty"`
	ContentType        string `json:"content_type" validate:"required"`
	Filename           string `json:"filename" validate:"required"`
	Content            string `json:"content,omitempty"`
	GrantID            string `json:"grant_id,omitempty"`
	ID                 string `json:"id,omitempty"`
	IsInline           *bool  `json:"is_inline,omitempty"`
	Size               int64  `json:"size" validate:"gte=0"`
}

// EmailAddress is a provider mailbox.
type EmailAddress struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// Email is the provider message object.
type Email struct {
	ID               string            `json:"id,omitempty"`
	GrantID          string            `json:"grant_id,omitempty"`
	Object           string            `json:"object,omitempty"`
	ReplyToMessageID string            `json:"reply_to_message_id,omitempty"`
	Attachments      []EmailAttachment `json:"attachments" validate:"dive"`
	From             []EmailAddress    `json:"from" validate:"dive"`
	To               []EmailAddress    `json:"to" validate:"min=1,dive"`
	Bcc              []EmailAddress    `json:"bcc" validate:"dive"`
	Cc               []EmailAddress    `json:"cc" validate:"dive"`
	ReplyTo          []EmailAddress    `json:"reply_to,omitempty" validate:"omitempty,dive"`
	Body             string            `json:"body"`
	Date             *int64            `json:"date,omitempty"`
	Folders          []string          `json:"folders,omitempty"`
	Snippet          string            `json:"snippet,omitempty"`
	Starred          *bool             `json:"starred,omitempty"`
	Subject          string            `json:"subject"`
	ThreadID         string            `json:"thread_id,omitempty"`
	Unread           *bool             `json:"unread,omitempty"`
	SendAt           *int64            `json:"send_at,omitempty"`
}

// WebhookData is the data member of a message webhook.
type WebhookData struct {
	ApplicationID string `json:"application_id"`
	Object        *Email `json:"object"`
}

// WebhookPayload is a message webhook delivery (CloudEvents envelope).
type WebhookPayload struct {
	SpecVersion            string      `json:"specversion"`
	Type                   string      `json:"type"`
	Source                 string      `json:"source"`
	ID                     string      `json:"id"`
	Time                   int64       `json:"time"`
	WebhookDeliveryAttempt int         `json:"webhook_delivery_attempt"`
	Data                   WebhookData `json:"data"`
}

// Response is the provider's success envelope.
type Response[T any] struct {
	RequestID string `json:"request_id,omitempty"`
	Data      T      `json:"data"`
}
