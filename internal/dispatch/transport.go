package dispatch

import "context"

type Message struct {
	To       string
	From     string
	FromName string
	Subject  string
	HTML     string
	Headers  map[string]string
}

// Transport delivers one message and returns the provider's message id.
// Implementations raise on failure; the dispatcher records and propagates.
type Transport interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}
