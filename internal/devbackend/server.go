// Package devbackend is an in-memory implementation of the feed backend's REST
// contract. It backs local development and the end-to-end tests of the client.
package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"karmafeed/internal/middleware"
	"karmafeed/internal/transform"
	"karmafeed/internal/utils"
)

const (
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"
	sessionCookie = "sessionid"
)

// Seed is a user created at startup.
type Seed struct {
	Username string
	Password string
}

type Options struct {
	Secret string
	Seeds  []Seed
	Now    func() time.Time
	// Avatars builds the avatar URL of the /me/ record.
	Avatars transform.Avatars
}

type Server struct {
	store   *Store
	avatars transform.Avatars
	engine  *gin.Engine
}

func New(opts Options) (*Server, error) {
	store := NewStore(opts.Now)
	for _, seed := range opts.Seeds {
		if _, err := store.AddUser(seed.Username, seed.Password); err != nil {
			return nil, err
		}
	}
	avatars := opts.Avatars
	if avatars.Base == "" {
		avatars.Base = transform.DefaultAvatarBase
	}
	secret := opts.Secret
	if secret == "" {
		secret = "karmafeed-dev-secret"
	}

	s := &Server{store: store, avatars: avatars}
	s.engine = s.routes(secret)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) routes(secret string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger("devbackend"), gin.Recovery())

	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400 * 14})
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(middleware.LoadUser(s.store.User))

	api := r.Group("/api", csrfProtect())
	{
		api.GET("/posts/", s.listPosts)
		api.POST("/posts/", s.createPost)
		api.POST("/posts/:id/like/", s.likePost)
		api.GET("/posts/:id/comments/", s.listComments)
		api.POST("/comments/", s.createComment)
		api.POST("/comments/:id/like/", s.likeComment)
		api.GET("/leaderboard/", s.leaderboard)
		api.GET("/me/", s.me)
		api.POST("/login/", s.login)
		api.POST("/logout/", s.logout)
	}
	return r
}

// csrfProtect issues the token cookie on safe requests and enforces the
// double-submit check on everything else. Login and logout are exempt.
func csrfProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(csrfCookie)
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if token == "" {
				c.SetCookie(csrfCookie, strings.ReplaceAll(uuid.NewString(), "-", ""), 86400*365, "/", "", false, false)
			}
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if strings.HasSuffix(path, "/login/") || strings.HasSuffix(path, "/logout/") {
			c.Next()
			return
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF cookie not set."})
			return
		}
		if c.GetHeader(csrfHeader) != token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token incorrect."})
			return
		}
		c.Next()
	}
}

func viewer(c *gin.Context) *user {
	u, ok := middleware.CurrentUser[user](c)
	if !ok {
		return nil
	}
	return &u
}

func pathID(c *gin.Context) (int, bool) {
	id := utils.StringToInt(c.Param("id"))
	if id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

func (s *Server) listPosts(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Posts(viewer(c)))
}

func (s *Server) createPost(c *gin.Context) {
	var req transform.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"content": []string{"This field may not be blank."}})
		return
	}
	c.JSON(http.StatusCreated, s.store.CreatePost(viewer(c), req.Content))
}

func (s *Server) likePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	liked, err := s.store.TogglePostLike(viewer(c), id)
	s.likeResult(c, liked, err)
}

func (s *Server) likeComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	liked, err := s.store.ToggleCommentLike(viewer(c), id)
	s.likeResult(c, liked, err)
}

func (s *Server) likeResult(c *gin.Context, liked bool, err error) {
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if liked {
		c.JSON(http.StatusCreated, gin.H{"status": "liked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unliked"})
}

func (s *Server) listComments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tree, err := s.store.Thread(viewer(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (s *Server) createComment(c *gin.Context) {
	var req transform.CreateCommentRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"content": []string{"This field may not be blank."}})
		return
	}
	postID, err := strconv.Atoi(req.Post.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"post": []string{"A valid integer is required."}})
		return
	}
	parentID := 0
	if req.Parent != nil && req.Parent.String() != "" {
		if parentID, err = strconv.Atoi(req.Parent.String()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"parent": []string{"A valid integer is required."}})
			return
		}
	}

	created, err := s.store.CreateComment(viewer(c), postID, parentID, req.Content)
	switch {
	case errors.Is(err, errInvalidParent):
		c.JSON(http.StatusBadRequest, gin.H{"parent": []string{err.Error()}})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid pk - object does not exist."})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) leaderboard(c *gin.Context) {
	rows := s.store.Leaderboard()
	if rows == nil {
		rows = []leaderView{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) me(c *gin.Context) {
	u := viewer(c)
	if u == nil {
		c.JSON(http.StatusOK, meView{ID: "1", Username: "Guest", Avatar: s.avatars.URL("Guest")})
		return
	}
	c.JSON(http.StatusOK, s.meView(*u))
}

func (s *Server) meView(u user) meView {
	recent, total := s.store.Karma(u.ID)
	return meView{
		ID:          u.ID,
		Username:    u.Username,
		Avatar:      s.avatars.URL(u.Username),
		TotalKarma:  total,
		RecentKarma: recent,
	}
}

func (s *Server) login(c *gin.Context) {
	var req transform.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}
	u, ok := s.store.Authenticate(req.Username, req.Password)
	if !ok {
		log.WithField("username", req.Username).Info("Rejected login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, u.ID)
	if err := session.Save(); err != nil {
		log.WithError(err).Error("Could not save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start session"})
		return
	}
	c.JSON(http.StatusOK, s.meView(u))
}

func (s *Server) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.WithError(err).Error("Could not clear session")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
