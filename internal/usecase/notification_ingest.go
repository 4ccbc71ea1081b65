package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	ws "dongnezip/internal/infrastructure/websocket"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
)

type NotificationsView struct {
	Count         int                   `json:"count"`
	Notifications []entity.Notification `json:"notifications"`
}

// NotificationIngest keeps a dedicated socket for server pushes while a user
// is signed in. It announces the user id on every connect and appends each
// push to the store in arrival order.
type NotificationIngest struct {
	newSocket SocketFactory
	store     *Store
	publisher Publisher
	log       *logger.Component

	mu     sync.Mutex
	socket repository.RealtimeChannel
	offs   []func()
}

func NewNotificationIngest(newSocket SocketFactory, store *Store, publisher Publisher) *NotificationIngest {
	return &NotificationIngest{
		newSocket: newSocket,
		store:     store,
		publisher: orNopPublisher(publisher),
		log:       logger.With("notifications"),
	}
}

// Start connects for session. Calling it while running is a no-op.
func (n *NotificationIngest) Start(ctx context.Context, session entity.Session) error {
	if !session.Resolved() {
		return errors.Unauthorized("notifications need a signed-in user", nil)
	}

	n.mu.Lock()
	if n.socket != nil {
		n.mu.Unlock()
		return nil
	}
	socket := n.newSocket()
	userID := session.UserID
	n.offs = []func(){
		socket.On(ws.EventConnect, func(json.RawMessage) {
			if err := socket.Emit(ws.EventRegister, userID); err != nil {
				n.log.Error("register failed: %v", err)
			}
		}),
		socket.On(ws.EventNotification, n.onNotification),
	}
	n.socket = socket
	n.mu.Unlock()

	if err := socket.Connect(ctx); err != nil {
		n.log.Error("connect failed: %v", err)
		n.Stop()
		return err
	}
	n.log.Info("listening for user %s", userID)
	return nil
}

func (n *NotificationIngest) onNotification(data json.RawMessage) {
	payload := append(json.RawMessage(nil), data...)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	notification := entity.Notification{Payload: payload, ReceivedAt: time.Now()}
	count := n.store.AddNotification(notification)

	n.publisher.Publish(TopicNotification, struct {
		Count        int                 `json:"count"`
		Notification entity.Notification `json:"notification"`
	}{count, notification})
}

// Stop disconnects. Notifications already received stay in the store.
func (n *NotificationIngest) Stop() {
	n.mu.Lock()
	socket, offs := n.socket, n.offs
	n.socket, n.offs = nil, nil
	n.mu.Unlock()

	for _, off := range offs {
		off()
	}
	if socket != nil {
		socket.Close()
		n.log.Info("stopped")
	}
}

func (n *NotificationIngest) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.socket != nil
}

func (n *NotificationIngest) View() NotificationsView {
	list := n.store.Notifications()
	return NotificationsView{Count: len(list), Notifications: list}
}

func (n *NotificationIngest) Clear() {
	n.store.ClearNotifications()
	n.publisher.Publish(TopicNotification, NotificationsView{Count: 0, Notifications: []entity.Notification{}})
}
