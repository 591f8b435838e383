// Package mcpserver exposes the send and download actions as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/nylas"
	"github.com/shineum/nylas-bridge/internal/response"
)

type sendAction interface {
	Execute(ctx context.Context, msg *message.EmailMessage) response.Response[*message.EmailMessage]
}

type downloadAction interface {
	Execute(ctx context.Context, attachment *message.Attachment) response.Response[*message.Attachment]
}

// sendMessageInput is the send_message argument shape. Only to is
// required; attachments carry content instead of a download path.
type sendMessageInput struct {
	Subject          string            `json:"subject,omitempty"`
	Body             string            `json:"body,omitempty" jsonschema:"message body, HTML or plain text"`
	From             []message.Address `json:"from,omitempty"`
	To               []message.Address `json:"to"`
	Cc               []message.Address `json:"cc,omitempty"`
	Bcc              []message.Address `json:"bcc,omitempty"`
	ReplyTo          []message.Address `json:"replyTo,omitempty"`
	ReplyToMessageID string            `json:"replyToMessageId,omitempty"`
	SendAt           *int64            `json:"sendAt,omitempty" jsonschema:"unix time to schedule the send"`
	Attachments      []attachmentInput `json:"attachments,omitempty"`
}

type attachmentInput struct {
	Filename    string `json:"filename"`
	Content     string `json:"content" jsonschema:"base64 encoded file content"`
	ContentType string `json:"contentType,omitempty"`
	ContentID   string `json:"contentId,omitempty"`
	IsInline    bool   `json:"isInline,omitempty"`
}

func (in sendMessageInput) message() *message.EmailMessage {
	msg := &message.EmailMessage{
		Subject:          in.Subject,
		Body:             in.Body,
		From:             in.From,
		To:               in.To,
		Cc:               in.Cc,
		Bcc:              in.Bcc,
		ReplyTo:          in.ReplyTo,
		ReplyToMessageID: in.ReplyToMessageID,
		SendAt:           in.SendAt,
	}
	if msg.From == nil {
		msg.From = []message.Address{}
	}
	for _, att := range in.Attachments {
		disposition := "attachment"
		if att.IsInline {
			disposition = "inline"
		}
		msg.Attachments = append(msg.Attachments, message.Attachment{
			Filename:           att.Filename,
			Content:            att.Content,
			ContentType:        att.ContentType,
			ContentID:          att.ContentID,
			ContentDisposition: disposition,
			IsInline:           att.IsInline,
		})
	}
	return msg
}

// Server provides MCP access to the provider actions.
type Server struct {
	version  string
	send     sendAction
	download downloadAction
}

// New creates a Server backed by the given actions.
func New(version string, send *nylas.SendMessageAction, download *nylas.DownloadAttachmentAction) *Server {
	return &Server{version: version, send: send, download: download}
}

// newWithOverrides creates a Server with custom actions for testing.
func newWithOverrides(send sendAction, download downloadAction) *Server {
	return &Server{version: "test", send: send, download: download}
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("MCP server starting", "transport", "stdio")
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nylas-bridge",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send an email message through the configured Nylas grant",
	}, s.sendMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "download_attachment",
		Description: "Download an attachment by path and return it with base64 content",
	}, s.downloadAttachment)

	return server
}

func (s *Server) sendMessage(ctx context.Context, _ *mcp.CallToolRequest, input sendMessageInput) (*mcp.CallToolResult, *response.Response[*message.EmailMessage], error) {
	res := s.send.Execute(ctx, input.message())
	return toolResult(res.Success, res.Err()), &res, nil
}

func (s *Server) downloadAttachment(ctx context.Context, _ *mcp.CallToolRequest, input message.Attachment) (*mcp.CallToolResult, *response.Response[*message.Attachment], error) {
	res := s.download.Execute(ctx, &input)
	return toolResult(res.Success, res.Err()), &res, nil
}

// toolResult reports a failed action as a tool error whose text is
// "CODE: message". The structured envelope is still attached.
func toolResult(success bool, errText string) *mcp.CallToolResult {
	if success {
		return nil
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: errText}},
	}
}
