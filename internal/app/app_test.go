package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmafeed/internal/config"
	"karmafeed/internal/devbackend"
	"karmafeed/internal/models"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		APIBaseURL:          baseURL,
		HTTPTimeout:         5 * time.Second,
		CSRFCookie:          "csrftoken",
		CSRFHeader:          "X-CSRFToken",
		CSRFBootstrapPath:   "/posts/",
		LeaderboardSize:     5,
		LeaderboardInterval: time.Second,
		SelfRefreshInterval: time.Minute,
		ThreadCacheSize:     10,
		ThreadCacheTTL:      time.Minute,
		UISessionSecret:     "test",
		LogLevel:            "info",
	}
}

func newTestApp(t *testing.T, username, password string) (*App, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := devbackend.New(devbackend.Options{Seeds: []devbackend.Seed{
		{Username: "alice", Password: "wonderland"},
		{Username: "bob", Password: "builder"},
	}})
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL + "/api")
	cfg.Username, cfg.Password = username, password
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	h, err := a.Handler()
	require.NoError(t, err)
	return a, h
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var tokenField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// browser keeps the UI cookies and the last form token it was shown.
type browser struct {
	h       http.Handler
	cookies map[string]*http.Cookie
	token   string
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	t.Helper()
	b := &browser{h: h, cookies: map[string]*http.Cookie{}}
	w := b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, b.token)
	return b
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := serve(b.h, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	if m := tokenField.FindStringSubmatch(w.Body.String()); m != nil {
		b.token = m[1]
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, values url.Values) *httptest.ResponseRecorder {
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", b.token)
	return b.do(form(http.MethodPost, target, values))
}

func TestBootstrapAsGuest(t *testing.T) {
	a, _ := newTestApp(t, "", "")
	require.NoError(t, a.Bootstrap(context.Background()))
	a.Leaderboard.Wait()

	assert.True(t, a.Session.Current().IsGuest())
	assert.True(t, a.Feed.Loaded())
	assert.Empty(t, a.Feed.Posts())
}

func TestBootstrapLoginFailure(t *testing.T) {
	a, _ := newTestApp(t, "alice", "wrong")
	assert.Error(t, a.Bootstrap(context.Background()))
	assert.True(t, a.Session.Current().IsGuest())
}

func TestUIFlow(t *testing.T) {
	a, h := newTestApp(t, "alice", "wonderland")
	ctx := context.Background()
	require.NoError(t, a.Bootstrap(ctx))

	b := newBrowser(t, h)
	w := b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.NotContains(t, w.Body.String(), `action="/login"`)

	w = b.post("/posts", url.Values{"content": {"hello **world**"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	posts := a.Feed.Posts()
	require.Len(t, posts, 1)
	postID := posts[0].ID

	w = b.get("/")
	assert.Contains(t, w.Body.String(), "<strong>world</strong>")

	w = b.post("/posts/"+postID+"/like", url.Values{"next": {"/?sort=hot"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?sort=hot", w.Header().Get("Location"))
	liked, _ := a.Feed.Post(postID)
	assert.True(t, liked.IsLiked)
	assert.Equal(t, 1, liked.LikesCount)
	assert.False(t, a.Feed.Diverged(postID))

	w = b.post("/posts/"+postID+"/comments", url.Values{"content": {"top"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	forest, ok := a.Thread.Comments(postID)
	require.True(t, ok)
	require.Len(t, forest, 1)

	w = b.post("/posts/"+postID+"/comments", url.Values{
		"content":   {"nested"},
		"parent_id": {forest[0].ID},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = b.get("/posts/"+postID+"/thread")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nested")
	assert.Equal(t, 2, strings.Count(w.Body.String(), `name="parent_id"`))

	updated, _ := a.Feed.Post(postID)
	assert.Equal(t, 2, updated.CommentsCount)

	forest, _ = a.Thread.Comments(postID)
	w = b.post("/posts/"+postID+"/comments/"+forest[0].ID+"/like", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	forest, _ = a.Thread.Comments(postID)
	assert.True(t, forest[0].IsLiked)

	a.Leaderboard.Wait()
	require.NoError(t, a.Leaderboard.Refresh(ctx, "test"))
	w = b.get("/leaderboard.json")
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Users []struct {
			Username    string `json:"username"`
			RecentKarma int    `json:"recentKarma"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board.Users, 1)
	assert.Equal(t, "alice", board.Users[0].Username)
	assert.Equal(t, 6, board.Users[0].RecentKarma)

	w = b.get("/metrics")
	assert.Contains(t, w.Body.String(), "karmafeed_gateway_requests_total")

	w = b.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, a.Session.Current().IsGuest())
}

func TestReplyAffordanceStopsAtDepthFour(t *testing.T) {
	a, h := newTestApp(t, "alice", "wonderland")
	ctx := context.Background()
	require.NoError(t, a.Bootstrap(ctx))
	require.NoError(t, a.Feed.CreatePost(ctx, "deep"))
	postID := a.Feed.Posts()[0].ID

	parent := ""
	for depth := 0; depth <= 5; depth++ {
		forest, err := a.Thread.Reply(ctx, postID, parent, "d"+string(rune('0'+depth)))
		require.NoError(t, err)
		var deepest string
		walkDeepest(forest, &deepest)
		parent = deepest
	}

	w := serve(h, httptest.NewRequest(http.MethodGet, "/posts/"+postID+"/thread", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "d5")
	// depths 0..3 offer a reply form, depths 4 and 5 do not
	assert.Equal(t, 4, strings.Count(body, `name="parent_id"`))
}

func walkDeepest(forest []models.Comment, id *string) {
	for _, c := range forest {
		*id = c.ID
		walkDeepest(c.Replies, id)
	}
}

func TestLoginErrorIsFlashed(t *testing.T) {
	a, h := newTestApp(t, "", "")
	require.NoError(t, a.Bootstrap(context.Background()))

	b := newBrowser(t, h)
	w := b.post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = b.get("/")
	assert.Contains(t, w.Body.String(), "Invalid username or password.")
	assert.True(t, a.Session.Current().IsGuest())
}

func TestForgedFormPostIsRefused(t *testing.T) {
	a, h := newTestApp(t, "alice", "wonderland")
	require.NoError(t, a.Bootstrap(context.Background()))
	b := newBrowser(t, h)

	// another site posting without the UI cookie
	req := form(http.MethodPost, "/posts", url.Values{"content": {"forged"}})
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)

	assert.Equal(t, http.StatusForbidden, serve(h, form(http.MethodPost, "/logout", nil)).Code)

	// the UI cookie alone is not enough
	w := b.do(form(http.MethodPost, "/posts", url.Values{"content": {"forged"}}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nor is the token when the request comes from elsewhere
	req = form(http.MethodPost, "/logout", url.Values{"csrf_token": {b.token}})
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, b.do(req).Code)

	assert.Empty(t, a.Feed.Posts())
	assert.Equal(t, "alice", a.Session.Current().Username)

	req = form(http.MethodPost, "/posts", url.Values{"content": {"mine"}, "csrf_token": {b.token}})
	req.Header.Set("Origin", "http://example.com")
	assert.Equal(t, http.StatusSeeOther, b.do(req).Code)
	require.Len(t, a.Feed.Posts(), 1)
}
