package usecase

import (
	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
)

// Topics pushed to connected UIs.
const (
	TopicChatMessage  = "chat.message"
	TopicChatState    = "chat.state"
	TopicChatView     = "chat.view"
	TopicListings     = "listings"
	TopicNotification = "notification"
	TopicSession      = "session"
)

// Publisher pushes component updates to whatever UI is listening.
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Limiter throttles outbound actions per user.
type Limiter interface {
	Check(userID, action string) error
}

// TokenHolder keeps the auth token and the identity decoded from it.
type TokenHolder interface {
	Restore() (entity.Session, error)
	Set(token string) (entity.Session, error)
	Clear() error
	Session() entity.Session
}

// SocketFactory opens a fresh, unconnected realtime channel.
type SocketFactory func() repository.RealtimeChannel

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

type nopLimiter struct{}

func (nopLimiter) Check(string, string) error { return nil }

func orNopPublisher(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func orNopLimiter(l Limiter) Limiter {
	if l == nil {
		return nopLimiter{}
	}
	return l
}
