package nylas

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/response"
	"github.com/shineum/nylas-bridge/internal/transport"
)

// DownloadAttachmentAction fills in attachment content from the provider.
type DownloadAttachmentAction struct {
	sender transport.Sender
}

// NewDownloadAttachmentAction creates a DownloadAttachmentAction.
func NewDownloadAttachmentAction(sender transport.Sender) *DownloadAttachmentAction {
	return &DownloadAttachmentAction{sender: sender}
}

// Execute downloads the attachment at attachment.Path and stores it base64
// encoded in attachment.Content. The attachment is modified in place and
// returned. An attachment that already has content is returned untouched
// without any request.
func (a *DownloadAttachmentAction) Execute(ctx context.Context, attachment *message.Attachment) response.Response[*message.Attachment] {
	if attachment == nil {
		return response.Error[*message.Attachment](ErrDownloadFailed, "no attachment given")
	}

	slog.Info("downloading attachment", "path", attachment.Path)

	if attachment.HasContent() {
		slog.Info("attachment already downloaded", "path", attachment.Path)
		return response.OK(attachment)
	}

	resp, err := a.sender.Send(ctx, attachment.Path, transport.RequestOptions{Method: http.MethodGet})
	if err != nil {
		slog.Error("failed to download attachment", "path", attachment.Path, "error", err)
		return response.Error[*message.Attachment](ErrDownloadFailed, err.Error())
	}
	if !resp.OK() {
		slog.Error("failed to download attachment",
			"path", attachment.Path,
			"status_text", resp.StatusText,
		)
		return response.Error[*message.Attachment](ErrDownloadFailed, resp.StatusText)
	}

	slog.Info("attachment downloaded", "path", attachment.Path, "bytes", len(resp.Bytes()))

	attachment.Content = base64.StdEncoding.EncodeToString(resp.Bytes())

	return response.OK(attachment)
}
