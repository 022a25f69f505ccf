package repository

import (
	"context"
	"time"

	"blog-server/internal/domain"
)

// SessionRepository persists the revocation records backing issued tokens.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every session whose expiry is at or before now
	// and reports how many rows went away.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
