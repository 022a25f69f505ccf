package domain

import "time"

// User represents a registered account. Admin is set once, at the first
// successful registration, and never changes afterwards.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}
