package nylas

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/response"
	"github.com/shineum/nylas-bridge/internal/transport"
)

// sendPath is the grant-relative send endpoint.
const sendPath = "/messages/send"

// SendMessageAction sends an internal message through the provider and
// returns the message as the provider accepted it.
type SendMessageAction struct {
	sender   transport.Sender
	outbound OutboundConverter
	inbound  InboundConverter
}

// NewSendMessageAction creates a SendMessageAction with the default
// transformers.
func NewSendMessageAction(sender transport.Sender) *SendMessageAction {
	return NewSendMessageActionWith(sender, NewOutboundTransformer(), NewInboundTransformer())
}

// NewSendMessageActionWith creates a SendMessageAction with custom
// transformers, used for testing.
func NewSendMessageActionWith(sender transport.Sender, outbound OutboundConverter, inbound InboundConverter) *SendMessageAction {
	return &SendMessageAction{
		sender:   sender,
		outbound: outbound,
		inbound:  inbound,
	}
}

// Execute sends msg. The provider does not echo attachment content back, so
// the content of msg's attachments is copied onto the returned message's
// attachments with the same filename.
func (a *SendMessageAction) Execute(ctx context.Context, msg *message.EmailMessage) response.Response[*message.EmailMessage] {
	if msg != nil {
		slog.Info("sending email message", "message", msg)
	}

	providerMsg := a.outbound.Transform(msg)
	if providerMsg == nil {
		slog.Error("failed to transform message to provider format")
		return response.Error[*message.EmailMessage](ErrTransformationError, "Message transformation failed.")
	}

	body, err := json.Marshal(providerMsg)
	if err != nil {
		slog.Error("failed to encode provider message", "error", err)
		return response.Error[*message.EmailMessage](ErrTransformationError, "Message transformation failed.")
	}

	resp, err := a.sender.Send(ctx, sendPath, transport.RequestOptions{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		slog.Error("failed to send message", "error", err)
		return response.Error[*message.EmailMessage](ErrRequestFailed, err.Error())
	}
	if !resp.OK() {
		slog.Error("failed to send message",
			"status", resp.StatusCode,
			"status_text", resp.StatusText,
			"body", string(resp.Bytes()),
		)
		return response.Error[*message.EmailMessage](ErrRequestFailed, resp.StatusText)
	}

	var result Response[*Email]
	if err := resp.JSON(&result); err != nil {
		slog.Error("failed to parse response", "error", err)
		return response.Error[*message.EmailMessage](ErrParseError, "Failed to parse response")
	}

	sent := a.inbound.Transform(result.Data)
	if sent == nil {
		slog.Error("failed to transform response from provider format", "request_id", result.RequestID)
		return response.Error[*message.EmailMessage](ErrTransformationError, "Failed to transform data")
	}

	reconcileAttachments(msg, sent)

	slog.Info("email message sent",
		"id", sent.ID,
		"subject", msg.Subject,
		"request_id", result.RequestID,
	)

	return response.OK(sent)
}

// reconcileAttachments copies attachment content from original onto sent by
// filename. Every original is matched against every sent attachment and each
// match overwrites, so with duplicate filenames the last original wins.
func reconcileAttachments(original, sent *message.EmailMessage) {
	for _, orig := range original.Attachments {
		for i := range sent.Attachments {
			if orig.Filename == sent.Attachments[i].Filename {
				sent.Attachments[i].Content = orig.Content
			}
		}
	}
}
