// Package parser converts raw RFC 5322 messages into internal email messages.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/shineum/nylas-bridge/internal/message"
)

// Parse parses a raw message. The HTML body is preferred over the plain text
// one. Transfer encodings and charsets are decoded; attachment content is
// returned base64 encoded.
func Parse(raw []byte) (*message.EmailMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if err != nil {
		slog.Warn("message uses an unknown charset or encoding", "error", err)
	}
	defer mr.Close()

	result := &message.EmailMessage{}
	readHeader(&mr.Header, result)

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !gomessage.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				contentType = "text/plain"
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				slog.Warn("failed to read inline part",
					"content_type", contentType,
					"error", err,
				)
				continue
			}

			switch {
			case contentType == "text/plain":
				if textBody == "" {
					textBody = string(body)
				}
			case contentType == "text/html":
				if htmlBody == "" {
					htmlBody = string(body)
				}
			default:
				disposition, _, err := h.ContentDisposition()
				if err != nil || disposition == "" {
					disposition = "inline"
				}
				result.Attachments = append(result.Attachments, attachment(contentType, inlineFilename(h, contentType), disposition, body, h.Get("Content-Id")))
			}

		case *mail.AttachmentHeader:
			contentType, _, err := h.ContentType()
			if err != nil || contentType == "" {
				contentType = "application/octet-stream"
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				slog.Warn("failed to read attachment part",
					"content_type", contentType,
					"error", err,
				)
				continue
			}

			filename, err := h.Filename()
			if err != nil || filename == "" {
				filename = fallbackFilename(contentType)
			}
			result.Attachments = append(result.Attachments, attachment(contentType, filename, "attachment", body, h.Get("Content-Id")))
		}
	}

	if htmlBody != "" {
		result.Body = htmlBody
	} else {
		result.Body = textBody
	}

	return result, nil
}

// readHeader copies the addressing and threading headers into msg.
func readHeader(h *mail.Header, msg *message.EmailMessage) {
	subject, err := h.Subject()
	if err != nil {
		slog.Warn("failed to decode subject", "error", err)
		subject = h.Get("Subject")
	}
	msg.Subject = subject

	msg.From = addressList(h, "From")
	msg.To = addressList(h, "To")
	msg.Cc = addressList(h, "Cc")
	msg.Bcc = addressList(h, "Bcc")
	msg.ReplyTo = addressList(h, "Reply-To")

	if ids, err := h.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		msg.ReplyToMessageID = ids[0]
	}

	if h.Has("Date") {
		date, err := h.Date()
		if err != nil {
			slog.Warn("ignoring unparseable date", "date", h.Get("Date"), "error", err)
		} else {
			unix := date.Unix()
			msg.Date = &unix
		}
	}
}

// addressList returns nil when the header is absent or empty.
func addressList(h *mail.Header, key string) []message.Address {
	if strings.TrimSpace(h.Get(key)) == "" {
		return nil
	}

	list, err := h.AddressList(key)
	if err != nil {
		slog.Warn("failed to parse address list",
			"header", key,
			"error", err,
		)
		return nil
	}
	if len(list) == 0 {
		return nil
	}

	out := make([]message.Address, 0, len(list))
	for _, addr := range list {
		out = append(out, message.Address{Email: addr.Address, Name: addr.Name})
	}
	return out
}

func attachment(contentType, filename, disposition string, body []byte, contentID string) message.Attachment {
	return message.Attachment{
		Filename:           filename,
		ContentType:        contentType,
		ContentDisposition: disposition,
		ContentID:          strings.Trim(contentID, "<>"),
		Size:               int64(len(body)),
		IsInline:           disposition == "inline",
		Content:            base64.StdEncoding.EncodeToString(body),
	}
}

// inlineFilename names an inline non-text part, such as an embedded image.
func inlineFilename(h *mail.InlineHeader, contentType string) string {
	if _, params, err := h.ContentDisposition(); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if _, params, err := h.ContentType(); err == nil && params["name"] != "" {
		return params["name"]
	}
	return fallbackFilename(contentType)
}

// fallbackFilename derives a name from the media type so the provider always
// receives a filename.
func fallbackFilename(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if parts := strings.SplitN(mediaType, "/", 2); len(parts) == 2 && parts[1] != "" {
			return "attachment." + parts[1]
		}
	}
	return "attachment"
}
