package websocket

import (
	"encoding/json"

	"dongnezip/internal/domain/entity"
)

// Event names on the realtime server.
const (
	// Local only, raised after a successful dial.
	EventConnect    = "connect"
	EventDisconnect = "disconnect"

	// Client -> server
	EventRegister = "register"
	EventJoinRoom = "joinRoom"
	EventSend     = "send"

	// Server -> client
	EventMessage      = "message"
	EventNotice       = "notice"
	EventNotification = "notification"
)

// Envelope wraps every frame on the wire.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Envelope{Type: event, Data: data})
}

type JoinRoomData struct {
	Nickname string `json:"nickname"`
	RoomID   int64  `json:"roomId"`
}

type SendData struct {
	TempID     string             `json:"tempId"`
	RoomID     int64              `json:"roomId"`
	SenderID   entity.UserID      `json:"senderId"`
	SenderNick string             `json:"senderNick"`
	Msg        string             `json:"msg"`
	Type       entity.MessageKind `json:"type"`
}

// MessageData is a broadcast chat message.
type MessageData struct {
	ID         int64         `json:"id,omitempty"`
	TempID     string        `json:"tempId,omitempty"`
	RoomID     int64         `json:"roomId,omitempty"`
	SenderID   entity.UserID `json:"senderId"`
	SenderNick string        `json:"senderNick"`
	Message    string        `json:"message"`
	Type       string        `json:"type"`
}

func (m MessageData) ToEntity() entity.ChatMessage {
	return entity.ChatMessage{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderNick: m.SenderNick,
		Body:       m.Message,
		Kind:       entity.NormalizeKind(m.Type),
	}
}
