package models

// GuestID and GuestUsername identify the unauthenticated viewer.
const (
	GuestID       = "1"
	GuestUsername = "Guest"
)

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`      // derived from Username, never stored server-side
	TotalKarma  int    `json:"totalKarma"`  // lifetime, server-owned
	RecentKarma int    `json:"recentKarma"` // rolling 24h window, server-owned
}

// GuestUser is the identity used whenever the current user cannot be fetched.
func GuestUser(avatar string) User {
	return User{
		ID:       GuestID,
		Username: GuestUsername,
		Avatar:   avatar,
	}
}

// IsGuest reports whether u is the unauthenticated fallback identity.
func (u User) IsGuest() bool {
	return u.Username == GuestUsername
}
