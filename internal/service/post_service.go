package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

// postDateLayout is the display format stamped on a post at creation,
// e.g. "August 31, 2026".
const postDateLayout = "January 02, 2006"

// PostService coordinates post and comment operations. Every mutating
// operation takes the acting user (nil for anonymous) and gates on it before
// touching the store.
type PostService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, []domain.Comment, error)
	CreatePost(ctx context.Context, actor *domain.User, title, subtitle, body, imageURL string) (*domain.Post, error)
	UpdatePost(ctx context.Context, actor *domain.User, id int64, title, subtitle, body, imageURL string) error
	DeletePost(ctx context.Context, actor *domain.User, id int64) error
	AddComment(ctx context.Context, actor *domain.User, postID int64, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]domain.Comment, error)
}

type postService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	clock    func() time.Time
}

func NewPostService(posts repository.PostRepository, comments repository.CommentRepository) PostService {
	return &postService{
		posts:    posts,
		comments: comments,
		clock:    time.Now,
	}
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

// GetPost returns a post together with its own comments only. Comments of
// other posts are never included.
func (s *postService) GetPost(ctx context.Context, id int64) (*domain.Post, []domain.Comment, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

func (s *postService) CreatePost(ctx context.Context, actor *domain.User, title, subtitle, body, imageURL string) (*domain.Post, error) {
	if !IsAdmin(actor) {
		return nil, ErrForbidden
	}
	if err := validatePostFields(title, body); err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:    strings.TrimSpace(title),
		Subtitle: strings.TrimSpace(subtitle),
		Date:     s.clock().Format(postDateLayout),
		Body:     body,
		ImageURL: strings.TrimSpace(imageURL),
		AuthorID: actor.ID,
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTitleTaken
		}
		return nil, err
	}
	return post, nil
}

// UpdatePost replaces the mutable fields of a post. The publication date and
// author stay as they were at creation.
func (s *postService) UpdatePost(ctx context.Context, actor *domain.User, id int64, title, subtitle, body, imageURL string) error {
	if !IsAdmin(actor) {
		return ErrForbidden
	}
	if err := validatePostFields(title, body); err != nil {
		return err
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	post.Title = strings.TrimSpace(title)
	post.Subtitle = strings.TrimSpace(subtitle)
	post.Body = body
	post.ImageURL = strings.TrimSpace(imageURL)

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrTitleTaken
		}
		return err
	}
	return nil
}

// DeletePost removes a post and every comment attached to it.
func (s *postService) DeletePost(ctx context.Context, actor *domain.User, id int64) error {
	if !IsAdmin(actor) {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, id)
}

// AddComment attaches a comment to an existing post. Anonymous callers are
// rejected before any lookup so a comment can never be written without an
// author.
func (s *postService) AddComment(ctx context.Context, actor *domain.User, postID int64, body string) (*domain.Comment, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(body) == "" {
		return nil, invalid("body", "is required")
	}

	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:   postID,
		AuthorID: actor.ID,
		Body:     body,
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func validatePostFields(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(body) == "" {
		return invalid("body", "is required")
	}
	return nil
}
