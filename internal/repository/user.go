package repository

import (
	"context"

	"blog-server/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// Create inserts a new user. The very first user inserted into an empty
	// store is marked as the administrator; the decision happens inside the
	// insert so two concurrent first registrations cannot both win it.
	// Returns ErrDuplicate when the email is already taken.
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
