package repository

import (
	"context"

	"blog-server/internal/domain"
)

// PostRepository exposes persistence operations for Post entities.
type PostRepository interface {
	Init(ctx context.Context) error
	// Create returns ErrDuplicate when the title is already taken and
	// ErrNotFound when the author reference does not resolve.
	Create(ctx context.Context, post *domain.Post) (int64, error)
	// Update replaces title, subtitle, body and image URL. The publication
	// date and author are left as they are.
	Update(ctx context.Context, post *domain.Post) error
	// Delete removes the post and every comment attached to it in a single
	// transaction.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns all posts ordered by id.
	List(ctx context.Context) ([]domain.Post, error)
}

// CommentRepository manages comments scoped to their posts.
type CommentRepository interface {
	Init(ctx context.Context) error
	// Create returns ErrNotFound when the post or author reference does not
	// resolve.
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	// ListByPost returns the comments of a single post ordered by id.
	ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error)
}
