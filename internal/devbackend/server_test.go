package devbackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Options{Secret: "test-secret", Seeds: []Seed{{Username: "alice", Password: "wonderland"}}})
	require.NoError(t, err)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func csrfFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", csrfCookie)
	return nil
}

func TestSafeRequestIssuesCSRFCookie(t *testing.T) {
	srv := newTestServer(t)
	w := do(srv, httptest.NewRequest(http.MethodGet, "/api/posts/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NotEmpty(t, csrfFrom(t, w).Value)
}

func TestWriteRequiresMatchingToken(t *testing.T) {
	srv := newTestServer(t)
	token := csrfFrom(t, do(srv, httptest.NewRequest(http.MethodGet, "/api/posts/", nil)))

	body := `{"content":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/posts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := do(srv, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF cookie not set")

	req = httptest.NewRequest(http.MethodPost, "/api/posts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(token)
	req.Header.Set(csrfHeader, "wrong")
	w = do(srv, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/posts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(token)
	req.Header.Set(csrfHeader, token.Value)
	w = do(srv, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created postView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "hello", created.Content)
	assert.Equal(t, guestUsername, created.Author.Username)
}

func TestLoginIsCSRFExempt(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username":"alice","password":"wonderland"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(srv, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "alice", me["username"])
	assert.Contains(t, me, "totalKarma")
	assert.Contains(t, me, "recentKarma")

	req = httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username":"alice","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, do(srv, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(srv, req).Code)
}

func TestMeReturnsGuestWithoutSession(t *testing.T) {
	srv := newTestServer(t)
	w := do(srv, httptest.NewRequest(http.MethodGet, "/api/me/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "1", me["id"])
	assert.Equal(t, "Guest", me["username"])
}

func TestUnknownPostIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(srv, httptest.NewRequest(http.MethodGet, "/api/posts/42/comments/", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(srv, httptest.NewRequest(http.MethodGet, "/api/posts/abc/comments/", nil)).Code)
}
