package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"karmafeed/internal/middleware"
)

const flashLoginError = "login_error"

// Render helper to inject common variables like the viewer's karma
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if viewer, exists := c.Get(middleware.ViewerKey); exists {
		obj["Me"] = viewer
	}
	obj["CurrentPath"] = c.Request.URL.RequestURI()
	obj["CSRFToken"] = c.GetString(middleware.FormTokenKey)

	c.HTML(code, name, obj)
}

// RenderError renders the error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// redirectBack sends the browser to the form's "next" field when it is a
// local path, else to fallback.
func redirectBack(c *gin.Context, fallback string) {
	next := c.PostForm("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = fallback
	}
	c.Redirect(http.StatusSeeOther, next)
}

func setFlash(c *gin.Context, key, value string) {
	session := sessions.Default(c)
	session.AddFlash(value, key)
	_ = session.Save()
}

func popFlash(c *gin.Context, key string) string {
	session := sessions.Default(c)
	flashes := session.Flashes(key)
	if len(flashes) == 0 {
		return ""
	}
	_ = session.Save()
	msg, _ := flashes[0].(string)
	return msg
}
