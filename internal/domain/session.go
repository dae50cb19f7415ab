package domain

import "time"

// Session binds a user, the app it was minted for, and the token issued at
// creation time. Sessions are never deleted; revocation is the terminal state.
type Session struct {
	ID        string
	UserID    int64
	AppID     string
	Token     string
	Revoked   bool
	CreatedAt time.Time
	RevokedAt *time.Time
}
