package usecase

import (
	"testing"

	"dongnezip/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestStoreRooms(t *testing.T) {
	store := NewStore()
	room := entity.ChatRoom{RoomID: 1, ItemID: 10, ChatHost: "1", ChatGuest: "2"}
	store.AddRoom(room)
	store.AddRoom(entity.ChatRoom{RoomID: 1, ItemID: 10, ChatHost: "1", ChatGuest: "2", GuestNick: "lee"})
	store.SetActiveRoom(1)

	assert.Len(t, store.Rooms(), 1)
	got, ok := store.FindRoom(10, "1", "2")
	assert.True(t, ok)
	assert.Equal(t, "lee", got.GuestNick)
	_, ok = store.FindRoom(10, "1", "3")
	assert.False(t, ok)

	active, ok := store.ActiveRoom()
	assert.True(t, ok)
	assert.Equal(t, int64(1), active.RoomID)

	store.RemoveRoom(1)
	assert.Empty(t, store.Rooms())
	_, ok = store.ActiveRoom()
	assert.False(t, ok)
}

func TestStoreWatchIdentity(t *testing.T) {
	store := NewStore()
	var seen []entity.Session
	cancel := store.WatchIdentity(func(s entity.Session) { seen = append(seen, s) })

	store.SetSession(entity.Session{UserID: "1"})
	store.SetSession(entity.Session{UserID: "1"})
	cancel()
	store.SetSession(entity.Session{UserID: "2"})

	assert.Equal(t, []entity.Session{{UserID: "1"}}, seen)
}

func TestStoreReset(t *testing.T) {
	store := NewStore()
	store.SetSession(entity.Session{UserID: "1"})
	store.AddRoom(entity.ChatRoom{RoomID: 1})
	store.SetFilters(entity.FilterState{Available: true, SortOption: entity.SortPopular})
	assert.Equal(t, 1, store.AddNotification(entity.Notification{}))

	store.Reset()

	assert.False(t, store.Session().Resolved())
	assert.Empty(t, store.Rooms())
	assert.Equal(t, entity.DefaultFilterState(), store.Filters())
	assert.Empty(t, store.Notifications())
}
