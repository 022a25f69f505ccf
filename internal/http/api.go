package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-server/internal/domain"
	"blog-server/internal/mail"
	"blog-server/internal/repository"
	"blog-server/internal/service"
	"blog-server/internal/storage"
)

const (
	sessionCookie = "blog_session"
	userKey       = "currentUser"

	maxUploadBytes = 10 << 20
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	posts     service.PostService
	sessions  service.SessionService
	mailer    mail.Mailer
	storage   storage.Service
	bucket    string
	keyPrefix string
	cookieTTL time.Duration
	logger    *logrus.Logger
}

func NewHandler(
	users service.UserService,
	posts service.PostService,
	sessions service.SessionService,
	mailer mail.Mailer,
	store storage.Service,
	bucket, keyPrefix string,
	cookieTTL time.Duration,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:     users,
		posts:     posts,
		sessions:  sessions,
		mailer:    mailer,
		storage:   store,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		cookieTTL: cookieTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(h.identify())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.GET("/me", h.me)

		api.GET("/posts", h.listPosts)
		api.GET("/posts/:id", h.getPost)
		api.POST("/posts", h.requireAdmin, h.createPost)
		api.PUT("/posts/:id", h.requireAdmin, h.updatePost)
		api.DELETE("/posts/:id", h.requireAdmin, h.deletePost)

		api.GET("/posts/:id/comments", h.listComments)
		api.POST("/posts/:id/comments", h.addComment)

		api.POST("/contact", h.contact)
		api.POST("/uploads", h.requireAdmin, h.uploadImage)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// identify resolves the session token on every request and stashes the user
// (nil for anonymous) in the request context. Resolution failures count as
// anonymous; restricted routes then reject them, so an error can never grant
// access.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token != "" {
			user, err := h.sessions.Resolve(c.Request.Context(), token)
			if err != nil {
				h.logger.Warnf("resolve session: %v", err)
			} else if user != nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func (h *Handler) requireAdmin(c *gin.Context) {
	if !service.IsAdmin(currentUser(c)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.cookieTTL.Seconds()), "/", "", false, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// registration signs the new account in right away
	token, err := h.sessions.Establish(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"user": userToResponse(user), "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.sessions.Establish(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user), "token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if token := tokenFromRequest(c); token != "" {
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			h.logger.Warnf("revoke session: %v", err)
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": "ok"})
}

func (h *Handler) me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	post, comments, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := postToResponse(*post)
	resp.Comments = make([]CommentResponse, len(comments))
	for i := range comments {
		resp.Comments[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

type postRequest struct {
	Title    string `json:"title" binding:"required"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body" binding:"required"`
	ImageURL string `json:"image_url"`
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), currentUser(c), req.Title, req.Subtitle, req.Body, req.ImageURL)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.posts.UpdatePost(c.Request.Context(), currentUser(c), id, req.Title, req.Subtitle, req.Body, req.ImageURL); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), currentUser(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) listComments(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	comments, err := h.posts.ListComments(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

type commentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) addComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), currentUser(c), id, req.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

// contact accepts a contact-form submission and hands it to the mail relay.
// Delivery is asynchronous; a relay failure is logged, not surfaced.
func (h *Handler) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "contact form is not configured"})
		return
	}

	msg := mail.Message{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Body:  req.Message,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.mailer.Send(ctx, msg); err != nil {
			h.logger.Warnf("send contact mail: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"submitted": true})
}

func (h *Handler) uploadImage(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", strings.Trim(h.keyPrefix, "/"), uuid.NewString(), path.Ext(file.Filename))
	location, err := h.storage.UploadObject(c.Request.Context(), src, storage.UploadOptions{
		Bucket:      h.bucket,
		Key:         key,
		ContentType: file.Header.Get("Content-Type"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	url, err := h.storage.ObjectURL(c.Request.Context(), h.bucket, key, 7*24*time.Hour)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"location": location, "url": url})
}

// writeError maps service and repository errors onto HTTP statuses. Unknown
// errors become 500s with a generic body so internals never leak.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrTitleTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "title already in use"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"created_at"`
}

type PostResponse struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	Date     string            `json:"date"`
	Body     string            `json:"body"`
	ImageURL string            `json:"image_url"`
	AuthorID int64             `json:"author_id"`
	Comments []CommentResponse `json:"comments,omitempty"`
}

type CommentResponse struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Admin:     user.Admin,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:       post.ID,
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Date:     post.Date,
		Body:     post.Body,
		ImageURL: post.ImageURL,
		AuthorID: post.AuthorID,
	}
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}
}
