package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FormTokenKey names the token in the session, in the gin context and in forms.
const FormTokenKey = "csrf_token"

// FormToken gives every UI session a token and refuses unsafe requests that
// come from another origin or do not echo the token in the form.
func FormToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(FormTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(FormTokenKey, token)
			if err := session.Save(); err != nil {
				log.WithError(err).Warn("Could not save form token")
			}
		}
		c.Set(FormTokenKey, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sent := c.PostForm(FormTokenKey)
		if !sameOrigin(c.Request) || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			log.WithFields(log.Fields{
				"path":   c.Request.URL.Path,
				"origin": c.Request.Header.Get("Origin"),
			}).Warn("Rejected cross-site form post")
			c.String(http.StatusForbidden, "Forbidden: invalid form token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// sameOrigin checks Origin, falling back to Referer. A request carrying
// neither is left to the token check.
func sameOrigin(r *http.Request) bool {
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return true
	}
	u, err := url.Parse(source)
	return err == nil && u.Host == r.Host
}
