package repository

import (
	"context"
	"encoding/json"
)

// RealtimeChannel is the bidirectional event connection to the chat server.
// Handlers run one at a time on the connection's read loop.
type RealtimeChannel interface {
	Connect(ctx context.Context) error
	Connected() bool
	On(event string, handler func(data json.RawMessage)) (off func())
	Emit(event string, payload interface{}) error
	Close() error
}
