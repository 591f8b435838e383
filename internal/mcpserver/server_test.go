package mcpserver

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shineum/nylas-bridge/internal/message"
	"github.com/shineum/nylas-bridge/internal/nylas"
	"github.com/shineum/nylas-bridge/internal/response"
)

// mockSend records the message it was asked to send.
type mockSend struct {
	got  *message.EmailMessage
	fail bool
}

func (m *mockSend) Execute(_ context.Context, msg *message.EmailMessage) response.Response[*message.EmailMessage] {
	m.got = msg
	if m.fail {
		return response.Error[*message.EmailMessage](nylas.ErrTransformationError, "Message transformation failed.")
	}
	sent := *msg
	sent.ID = "sent-1"
	return response.OK(&sent)
}

// mockDownload fills in fixed content.
type mockDownload struct{}

func (mockDownload) Execute(_ context.Context, att *message.Attachment) response.Response[*message.Attachment] {
	att.Content = "WA=="
	return response.OK(att)
}

func sampleMessage() sendMessageInput {
	return sendMessageInput{
		Subject: "Hello",
		Body:    "Hi there",
		From:    []message.Address{{Email: "me@example.com"}},
		To:      []message.Address{{Email: "you@example.com"}},
	}
}

func TestSendMessage_Success(t *testing.T) {
	t.Parallel()

	send := &mockSend{}
	s := newWithOverrides(send, mockDownload{})

	res, out, err := s.sendMessage(context.Background(), nil, sampleMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Errorf("result: got %+v, want nil for success", res)
	}
	if !out.Success || out.Data.ID != "sent-1" {
		t.Errorf("output: got %+v, want success with id sent-1", out)
	}
	if send.got == nil || send.got.Subject != "Hello" {
		t.Errorf("action received %+v, want the input message", send.got)
	}
}

func TestSendMessage_FailureIsToolError(t *testing.T) {
	t.Parallel()

	s := newWithOverrides(&mockSend{fail: true}, mockDownload{})

	res, out, err := s.sendMessage(context.Background(), nil, sampleMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatal("expected IsError result for failed action")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "TRANSFORMATION_ERROR: Message transformation failed." {
		t.Errorf("content: got %+v, want CODE: message text", res.Content)
	}
	if out.Success || out.Code != nylas.ErrTransformationError {
		t.Errorf("output: got %+v, want TRANSFORMATION_ERROR", out)
	}
}

func TestDownloadAttachment(t *testing.T) {
	t.Parallel()

	s := newWithOverrides(&mockSend{}, mockDownload{})

	_, out, err := s.downloadAttachment(context.Background(), nil, message.Attachment{
		Path:     "/attachments/a/download?message_id=m",
		Filename: "a.txt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success || out.Data.Content != "WA==" {
		t.Errorf("output: got %+v, want content WA==", out)
	}
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := s.build().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })

	return cs
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t, newWithOverrides(&mockSend{}, mockDownload{}))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	names := make(map[string]bool)
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"send_message", "download_attachment"} {
		if !names[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestServer_CallSendMessage(t *testing.T) {
	t.Parallel()

	send := &mockSend{}
	cs := connect(t, newWithOverrides(send, mockDownload{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "send_message",
		Arguments: map[string]any{
			"subject": "Hello",
			"body":    "Hi there",
			"from":    []map[string]any{{"email": "me@example.com"}},
			"to":      []map[string]any{{"email": "you@example.com", "name": "You"}},
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("expected content in result")
	}

	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type: got %T, want *mcp.TextContent", res.Content[0])
	}

	var out response.Response[*message.EmailMessage]
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !out.Success || out.Data.ID != "sent-1" {
		t.Errorf("output: got %+v, want success with id sent-1", out)
	}
	if send.got == nil || len(send.got.To) != 1 || send.got.To[0].Name != "You" {
		t.Errorf("action received %+v, want decoded recipients", send.got)
	}
}

func TestServer_CallSendMessage_AttachmentWithoutPath(t *testing.T) {
	t.Parallel()

	send := &mockSend{}
	cs := connect(t, newWithOverrides(send, mockDownload{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "send_message",
		Arguments: map[string]any{
			"to": []map[string]any{{"email": "you@example.com"}},
			"attachments": []map[string]any{
				{"filename": "a.txt", "content": "X"},
			},
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}

	got := send.got
	if got == nil {
		t.Fatal("send action was not called")
	}
	if got.Subject != "" || got.Body != "" {
		t.Errorf("Subject/Body: got %q/%q, want empty", got.Subject, got.Body)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("Attachments: got %d, want 1", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Filename != "a.txt" || att.Content != "X" || att.Path != "" {
		t.Errorf("attachment: got %+v, want a.txt with content X and no path", att)
	}
	if att.ContentDisposition != "attachment" {
		t.Errorf("ContentDisposition: got %q, want %q", att.ContentDisposition, "attachment")
	}
}

func TestSendMessageInput_Message(t *testing.T) {
	t.Parallel()

	msg := sendMessageInput{
		To: []message.Address{{Email: "you@example.com"}},
		Attachments: []attachmentInput{
			{Filename: "logo.png", Content: "WA==", ContentID: "logo", IsInline: true},
		},
	}.message()

	if msg.From == nil {
		t.Error("From: got nil, want empty slice")
	}
	if msg.Cc != nil || msg.Bcc != nil || msg.ReplyTo != nil {
		t.Errorf("absent lists must stay nil: %+v", msg)
	}
	att := msg.Attachments[0]
	if !att.IsInline || att.ContentDisposition != "inline" || att.ContentID != "logo" {
		t.Errorf("inline attachment: got %+v", att)
	}
}
