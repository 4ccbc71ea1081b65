package entity

// ChatRoom is a conversation scoped to one listing, its seller (host) and one buyer (guest).
type ChatRoom struct {
	RoomID    int64  `json:"roomId"`
	ItemID    int64  `json:"itemId"`
	ChatHost  UserID `json:"chatHost"`
	ChatGuest UserID `json:"chatGuest"`
	GuestNick string `json:"guestNick,omitempty"`
}

func (r ChatRoom) IsHost(userID UserID) bool {
	return !userID.IsZero() && r.ChatHost == userID
}
