package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-server/internal/repository/sqlite"
	"blog-server/internal/service"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	for _, init := range []interface {
		Init(ctx context.Context) error
	}{userRepo, postRepo, commentRepo, sessionRepo} {
		if err := init.Init(ctx); err != nil {
			t.Fatalf("init schema: %v", err)
		}
	}

	logger := logrus.New()
	handler := NewHandler(
		service.NewUserService(userRepo),
		service.NewPostService(postRepo, commentRepo),
		service.NewSessionService(sessionRepo, userRepo, "test-secret", time.Hour),
		nil, // mailer
		nil, // storage
		"", "",
		time.Hour,
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router *gin.Engine, name, email string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("registration must establish a session")
	}
	return resp.Token
}

func TestRegisterLoginFlow(t *testing.T) {
	router := newTestServer(t)

	registerUser(t, router, "Ada", "ada@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	router := newTestServer(t)

	registerUser(t, router, "Ada", "ada@example.com")
	rec := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Impostor",
		"email":    "ada@example.com",
		"password": "another pass",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminGateOnPosts(t *testing.T) {
	router := newTestServer(t)

	adminToken := registerUser(t, router, "Ada", "ada@example.com")
	readerToken := registerUser(t, router, "Grace", "grace@example.com")

	post := gin.H{"title": "First Light", "subtitle": "hello", "body": "<p>body</p>", "image_url": "img"}

	rec := doJSON(t, router, http.MethodPost, "/api/posts", readerToken, post)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("reader create: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/posts", "", post)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous create: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/posts", adminToken, post)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created PostResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode post: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: status %d", rec.Code)
	}
	var got PostResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if got.Title != "First Light" || got.Body != "<p>body</p>" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/posts/%d", created.ID), readerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("reader delete: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/posts/%d", created.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted post: expected 404, got %d", rec.Code)
	}
}

func TestCommentsRequireSignIn(t *testing.T) {
	router := newTestServer(t)

	adminToken := registerUser(t, router, "Ada", "ada@example.com")
	readerToken := registerUser(t, router, "Grace", "grace@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/posts", adminToken, gin.H{
		"title": "First Light", "body": "body",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status %d", rec.Code)
	}
	var created PostResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	commentPath := fmt.Sprintf("/api/posts/%d/comments", created.ID)

	rec = doJSON(t, router, http.MethodPost, commentPath, "", gin.H{"body": "drive-by"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous comment: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, commentPath, readerToken, gin.H{"body": "nice post"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reader comment: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, commentPath, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list comments: status %d", rec.Code)
	}
	var comments []CommentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &comments); err != nil {
		t.Fatalf("decode comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "nice post" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	router := newTestServer(t)

	token := registerUser(t, router, "Ada", "ada@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me before logout: status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}

	// the same revoked token must not pass the admin gate either
	rec = doJSON(t, router, http.MethodPost, "/api/posts", token, gin.H{"title": "t", "body": "b"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("revoked admin token: expected 403, got %d", rec.Code)
	}
}

func TestContactUnconfigured(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/contact", "", gin.H{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "hello there",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a relay, got %d", rec.Code)
	}
}
