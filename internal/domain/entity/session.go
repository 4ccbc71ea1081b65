package entity

type Session struct {
	UserID   UserID `json:"id"`
	Nickname string `json:"nickname"`
}

// Resolved reports whether the session carries an authenticated user.
func (s Session) Resolved() bool {
	return !s.UserID.IsZero()
}
