package entity

import "time"

type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindImage  MessageKind = "image"
	MessageKindNotice MessageKind = "notice"
)

// Origin is the local classification of a message relative to the viewing user.
// It is derived, never stored on the message.
type Origin string

const (
	OriginMe     Origin = "me"
	OriginOther  Origin = "other"
	OriginNotice Origin = "notice"
)

type ChatMessage struct {
	ID         int64       `json:"id,omitempty"`
	RoomID     int64       `json:"roomId,omitempty"`
	SenderID   UserID      `json:"senderId"`
	SenderNick string      `json:"senderNick"`
	Body       string      `json:"message"`
	Kind       MessageKind `json:"kind"`
	ReceivedAt time.Time   `json:"receivedAt"`
}

func (m ChatMessage) OriginFor(localID UserID) Origin {
	if m.Kind == MessageKindNotice {
		return OriginNotice
	}
	if !localID.IsZero() && m.SenderID == localID {
		return OriginMe
	}
	return OriginOther
}

// NormalizeKind maps an unknown or empty kind to text, the same fallback the
// history endpoint relies on for older rows without a type.
func NormalizeKind(kind string) MessageKind {
	switch MessageKind(kind) {
	case MessageKindImage:
		return MessageKindImage
	case MessageKindNotice:
		return MessageKindNotice
	default:
		return MessageKindText
	}
}

// ImageFile is a binary picked for upload, before the backend has given it a URL.
type ImageFile struct {
	Name string
	Data []byte
}

type ImageUpload struct {
	RoomID     int64
	SenderID   UserID
	SenderNick string
	ChatHost   UserID
	ChatGuest  UserID
	File       ImageFile
}
