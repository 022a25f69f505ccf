package domain

import "time"

// Session is the server-side record backing an issued login token. The ID is
// the token's jti claim; deleting the row revokes the token regardless of its
// remaining lifetime.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
