package usecase

import (
	"sync"

	"dongnezip/internal/domain/entity"
)

// Store is the shared session state every component reads and writes. Each
// method is atomic, so readers never see a half-applied update.
type Store struct {
	mu            sync.RWMutex
	session       entity.Session
	rooms         []entity.ChatRoom
	activeRoom    int64
	filters       entity.FilterState
	notifications []entity.Notification

	watchers  map[uint64]func(entity.Session)
	nextWatch uint64
}

func NewStore() *Store {
	return &Store{
		filters:  entity.DefaultFilterState(),
		watchers: make(map[uint64]func(entity.Session)),
	}
}

func (s *Store) Session() entity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetSession replaces the identity and notifies watchers when it changed.
func (s *Store) SetSession(session entity.Session) {
	s.mu.Lock()
	changed := s.session != session
	s.session = session
	watchers := s.watcherList()
	s.mu.Unlock()

	if changed {
		for _, w := range watchers {
			w(session)
		}
	}
}

// WatchIdentity calls fn after every identity change until cancel is called.
func (s *Store) WatchIdentity(fn func(entity.Session)) (cancel func()) {
	s.mu.Lock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) watcherList() []func(entity.Session) {
	out := make([]func(entity.Session), 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w)
	}
	return out
}

func (s *Store) Rooms() []entity.ChatRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ChatRoom, len(s.rooms))
	copy(out, s.rooms)
	return out
}

func (s *Store) Room(roomID int64) (entity.ChatRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.RoomID == roomID {
			return r, true
		}
	}
	return entity.ChatRoom{}, false
}

// FindRoom looks up the room for a listing between host and guest.
func (s *Store) FindRoom(itemID int64, host, guest entity.UserID) (entity.ChatRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.ItemID == itemID && r.ChatHost == host && r.ChatGuest == guest {
			return r, true
		}
	}
	return entity.ChatRoom{}, false
}

// AddRoom stores room, replacing any entry with the same id.
func (s *Store) AddRoom(room entity.ChatRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rooms {
		if r.RoomID == room.RoomID {
			s.rooms[i] = room
			return
		}
	}
	s.rooms = append(s.rooms, room)
}

func (s *Store) RemoveRoom(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rooms {
		if r.RoomID == roomID {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			break
		}
	}
	if s.activeRoom == roomID {
		s.activeRoom = 0
	}
}

func (s *Store) SetActiveRoom(roomID int64) {
	s.mu.Lock()
	s.activeRoom = roomID
	s.mu.Unlock()
}

func (s *Store) ActiveRoom() (entity.ChatRoom, bool) {
	s.mu.RLock()
	id := s.activeRoom
	s.mu.RUnlock()
	if id == 0 {
		return entity.ChatRoom{}, false
	}
	return s.Room(id)
}

func (s *Store) Filters() entity.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Store) SetFilters(f entity.FilterState) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// AddNotification appends n and returns the new count.
func (s *Store) AddNotification(n entity.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return len(s.notifications)
}

func (s *Store) Notifications() []entity.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) ClearNotifications() {
	s.mu.Lock()
	s.notifications = nil
	s.mu.Unlock()
}

// Reset drops everything tied to the signed-in user.
func (s *Store) Reset() {
	s.mu.Lock()
	s.rooms = nil
	s.activeRoom = 0
	s.filters = entity.DefaultFilterState()
	s.notifications = nil
	s.mu.Unlock()

	s.SetSession(entity.Session{})
}
