// Package stdout implements a Sink that prints threads to standard output.
package stdout

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shineum/nylas-bridge/internal/message"
)

const separator = "========================================\n"

// Sink prints message threads in a human-readable format.
type Sink struct {
	mu sync.Mutex
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Sink that writes to os.Stdout.
func New() *Sink {
	return &Sink{writer: os.Stdout}
}

// NewWithWriter creates a new Sink that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Sink {
	return &Sink{writer: w}
}

// Deliver prints every message of the thread.
func (s *Sink) Deliver(_ context.Context, thread *message.MessageThread) error {
	var b strings.Builder

	b.WriteString(separator)
	if thread.ID != "" {
		b.WriteString(fmt.Sprintf("Thread: %s\n", thread.ID))
	}

	for i, msg := range thread.Messages {
		if i > 0 {
			b.WriteString("----------------------------------------\n")
		}
		writeMessage(&b, &msg)
	}

	b.WriteString(separator)

	// Webhook deliveries can arrive concurrently; keep each thread contiguous.
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprint(s.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write thread: %w", err)
	}
	return nil
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return "stdout"
}

func writeMessage(b *strings.Builder, msg *message.EmailMessage) {
	if msg.ID != "" {
		b.WriteString(fmt.Sprintf("Message: %s\n", msg.ID))
	}
	b.WriteString(fmt.Sprintf("From: %s\n", formatAddresses(msg.From)))
	b.WriteString(fmt.Sprintf("To: %s\n", formatAddresses(msg.To)))

	if len(msg.Cc) > 0 {
		b.WriteString(fmt.Sprintf("Cc: %s\n", formatAddresses(msg.Cc)))
	}
	if msg.Date != nil {
		b.WriteString(fmt.Sprintf("Date: %s\n", time.Unix(*msg.Date, 0).UTC().Format(time.RFC1123Z)))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	b.WriteString("Body:\n")
	b.WriteString(msg.Body + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.Filename, formatSize(attachmentSize(att))))
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(attachments, ", ")))
	}
}

func formatAddresses(addrs []message.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Name != "" {
			out = append(out, fmt.Sprintf("%s <%s>", a.Name, a.Email))
			continue
		}
		out = append(out, a.Email)
	}
	return strings.Join(out, ", ")
}

// attachmentSize prefers the downloaded content length over the reported
// size.
func attachmentSize(att message.Attachment) int {
	if att.Content != "" {
		if decoded, err := base64.StdEncoding.DecodeString(att.Content); err == nil {
			return len(decoded)
		}
	}
	return int(att.Size)
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
