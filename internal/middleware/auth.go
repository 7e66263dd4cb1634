package middleware

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const CheckUserKey = "user"
const SessionUserKey = "user_id"

// LoadUser retrieves the user id from the session and stores whatever lookup
// resolves it to under CheckUserKey. Unknown ids are ignored.
func LoadUser[T any](lookup func(id int) (T, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if id, ok := session.Get(SessionUserKey).(int); ok {
			if user, found := lookup(id); found {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser attached, if any.
func CurrentUser[T any](c *gin.Context) (T, bool) {
	var zero T
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return zero, false
	}
	user, ok := v.(T)
	return user, ok
}

// RequestLogger logs one line per request through logrus.
func RequestLogger(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"component": component,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Warn("Request failed")
			return
		}
		entry.Debug("Request served")
	}
}

const ViewerKey = "viewer"

// LoadViewer exposes the client's current identity to handlers and templates.
func LoadViewer[T any](current func() T) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ViewerKey, current())
		c.Next()
	}
}
