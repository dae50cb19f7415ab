package domain

import "time"

// User is an identity record shared by every tenant app. Usernames are
// globally unique, not scoped per app.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
