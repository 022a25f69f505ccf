package service

import (
	"context"
	"fmt"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository mirroring the store's
// semantics: unique email, first row wins the admin bit.
type fakeUserRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return 0, fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	user.Admin = len(r.users) == 0
	user.CreatedAt = time.Now().UTC()
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

type fakePostRepo struct {
	nextID   int64
	posts    map[int64]*domain.Post
	comments *fakeCommentRepo
}

func newFakePostRepo(comments *fakeCommentRepo) *fakePostRepo {
	return &fakePostRepo{posts: map[int64]*domain.Post{}, comments: comments}
}

func (r *fakePostRepo) Init(ctx context.Context) error { return nil }

func (r *fakePostRepo) Create(ctx context.Context, post *domain.Post) (int64, error) {
	for _, existing := range r.posts {
		if existing.Title == post.Title {
			return 0, fmt.Errorf("insert post: %w", repository.ErrDuplicate)
		}
	}
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	r.posts[post.ID] = &stored
	return post.ID, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *domain.Post) error {
	existing, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("post %d: %w", post.ID, repository.ErrNotFound)
	}
	for _, other := range r.posts {
		if other.ID != post.ID && other.Title == post.Title {
			return fmt.Errorf("update post: %w", repository.ErrDuplicate)
		}
	}
	existing.Title = post.Title
	existing.Subtitle = post.Subtitle
	existing.Body = post.Body
	existing.ImageURL = post.ImageURL
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	delete(r.posts, id)
	if r.comments != nil {
		for cid, comment := range r.comments.comments {
			if comment.PostID == id {
				delete(r.comments.comments, cid)
			}
		}
	}
	return nil
}

func (r *fakePostRepo) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) List(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	for id := int64(1); id <= r.nextID; id++ {
		if post, ok := r.posts[id]; ok {
			posts = append(posts, *post)
		}
	}
	return posts, nil
}

type fakeCommentRepo struct {
	nextID   int64
	comments map[int64]*domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[int64]*domain.Comment{}}
}

func (r *fakeCommentRepo) Init(ctx context.Context) error { return nil }

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now().UTC()
	stored := *comment
	r.comments[comment.ID] = &stored
	return comment.ID, nil
}

func (r *fakeCommentRepo) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	var comments []domain.Comment
	for id := int64(1); id <= r.nextID; id++ {
		if comment, ok := r.comments[id]; ok && comment.PostID == postID {
			comments = append(comments, *comment)
		}
	}
	return comments, nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) Init(ctx context.Context) error { return nil }

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	session.CreatedAt = time.Now().UTC()
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
