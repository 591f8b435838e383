// Package sink defines where message threads received by webhook are
// delivered.
package sink

import (
	"context"

	"github.com/shineum/nylas-bridge/internal/message"
)

// Sink is the interface that thread consumers must implement.
type Sink interface {
	// Deliver hands a thread to the consumer.
	// It returns an error if the consumer could not accept it.
	Deliver(ctx context.Context, thread *message.MessageThread) error

	// Name returns the human-readable name of this sink.
	Name() string
}
