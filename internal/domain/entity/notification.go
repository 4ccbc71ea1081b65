package entity

import (
	"encoding/json"
	"time"
)

// Notification is an opaque server-pushed payload.
type Notification struct {
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}
