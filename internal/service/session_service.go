package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

// SessionService issues and resolves login tokens. Tokens are signed JWTs
// whose jti is also stored server-side; deleting the stored row revokes the
// token, so logout works even though the signature stays valid.
type SessionService interface {
	// Establish issues a fresh token for the user. Existing sessions are
	// untouched; a user may be signed in from several places at once.
	Establish(ctx context.Context, userID int64) (string, error)
	// Resolve maps a token to the signed-in user, or to nil for the
	// anonymous caller. A malformed, expired or revoked token is anonymous,
	// not an error.
	Resolve(ctx context.Context, token string) (*domain.User, error)
	// Revoke ends the session carried by the token. Unparsable tokens are
	// ignored; logging out twice is fine.
	Revoke(ctx context.Context, token string) error
	// DeleteExpired sweeps revocation rows whose tokens can no longer
	// verify anyway.
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type sessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	secret   []byte
	ttl      time.Duration
	clock    func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, secret string, ttl time.Duration) SessionService {
	return &sessionService{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		clock:    time.Now,
	}
}

func (s *sessionService) Establish(ctx context.Context, userID int64) (string, error) {
	now := s.clock()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	claims := &sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, ok := s.parse(token)
	if !ok {
		return nil, nil
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil // revoked
		}
		return nil, err
	}
	if !s.clock().Before(session.ExpiresAt) {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *sessionService) Revoke(ctx context.Context, token string) error {
	claims, ok := s.parse(token)
	if !ok {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *sessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock().UTC())
}

// parse verifies the token signature and standard claims. It reports false
// for anything that does not check out; the caller treats that as anonymous.
func (s *sessionService) parse(token string) (*sessionClaims, bool) {
	if token == "" {
		return nil, false
	}
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.ID == "" {
		return nil, false
	}
	return claims, true
}
