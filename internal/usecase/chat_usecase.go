package usecase

import (
	"context"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
)

// ChatUseCase keeps the open chat sessions, all sharing one socket.
type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	listingRepo repository.ListingRepository
	socket      repository.RealtimeChannel
	store       *Store
	rateLimiter Limiter
	publisher   Publisher
	pageSize    int
	log         *logger.Component

	mu       sync.Mutex
	sessions map[int64]*ChatSession
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	listingRepo repository.ListingRepository,
	socket repository.RealtimeChannel,
	store *Store,
	rateLimiter Limiter,
	publisher Publisher,
	pageSize int,
) *ChatUseCase {
	u := &ChatUseCase{
		chatRepo:    chatRepo,
		listingRepo: listingRepo,
		socket:      socket,
		store:       store,
		rateLimiter: rateLimiter,
		publisher:   orNopPublisher(publisher),
		pageSize:    pageSize,
		log:         logger.With("chat"),
		sessions:    make(map[int64]*ChatSession),
	}
	// Origins are resolved against the current identity, so open views are
	// pushed again whenever it changes.
	store.WatchIdentity(func(entity.Session) { u.republish() })
	return u
}

func (u *ChatUseCase) republish() {
	u.mu.Lock()
	sessions := make([]*ChatSession, 0, len(u.sessions))
	for _, s := range u.sessions {
		sessions = append(sessions, s)
	}
	u.mu.Unlock()

	for _, s := range sessions {
		if s.State() != ChatClosed {
			u.publisher.Publish(TopicChatView, s.View())
		}
	}
}

// Open mounts room, reusing an already open session. The room is remembered
// in the store and becomes the active one.
func (u *ChatUseCase) Open(ctx context.Context, room entity.ChatRoom) (*ChatView, error) {
	if room.RoomID == 0 {
		return nil, errors.BadRequest("room id is required", nil)
	}
	if known, ok := u.store.Room(room.RoomID); ok && room.ItemID == 0 {
		room = known
	}

	u.mu.Lock()
	session, ok := u.sessions[room.RoomID]
	if !ok || session.State() == ChatClosed {
		session = NewChatSession(room, ChatSessionDeps{
			Chats:     u.chatRepo,
			Listings:  u.listingRepo,
			Socket:    u.socket,
			Store:     u.store,
			Limiter:   u.rateLimiter,
			Publisher: u.publisher,
			PageSize:  u.pageSize,
		})
		u.sessions[room.RoomID] = session
	}
	u.mu.Unlock()

	u.store.AddRoom(room)
	u.store.SetActiveRoom(room.RoomID)

	err := session.Open(ctx)
	view := session.View()
	return &view, err
}

// Session returns the open session for roomID.
func (u *ChatUseCase) Session(roomID int64) (*ChatSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	session, ok := u.sessions[roomID]
	if !ok || session.State() == ChatClosed {
		return nil, errors.NotFound("open chat session", nil)
	}
	return session, nil
}

func (u *ChatUseCase) Close(roomID int64) {
	u.mu.Lock()
	session, ok := u.sessions[roomID]
	delete(u.sessions, roomID)
	u.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll tears down every session, e.g. on logout.
func (u *ChatUseCase) CloseAll() {
	u.mu.Lock()
	sessions := u.sessions
	u.sessions = make(map[int64]*ChatSession)
	u.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	u.log.Info("closed %d chat session(s)", len(sessions))
}

// Logout closes every session and hangs up the shared socket, so the next
// login dials again with its own token.
func (u *ChatUseCase) Logout() {
	u.CloseAll()
	if err := u.socket.Close(); err != nil {
		u.log.Warn("closing chat socket: %v", err)
	}
}

// Complete runs the completion saga for roomID. A finished room is forgotten.
func (u *ChatUseCase) Complete(ctx context.Context, roomID int64) error {
	session, err := u.Session(roomID)
	if err != nil {
		return err
	}
	if err := session.CompleteTransaction(ctx); err != nil {
		return err
	}
	u.forget(roomID, session)
	return nil
}

func (u *ChatUseCase) ResumeCompletion(ctx context.Context, roomID int64) error {
	session, err := u.Session(roomID)
	if err != nil {
		return err
	}
	if err := session.ResumeCompletion(ctx); err != nil {
		return err
	}
	u.forget(roomID, session)
	return nil
}

func (u *ChatUseCase) forget(roomID int64, session *ChatSession) {
	u.mu.Lock()
	if u.sessions[roomID] == session {
		delete(u.sessions, roomID)
	}
	u.mu.Unlock()
}
