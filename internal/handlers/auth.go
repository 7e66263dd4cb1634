package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"karmafeed/internal/api"
	"karmafeed/internal/services"
)

type AuthHandler struct {
	session *services.Session
}

func NewAuthHandler(session *services.Session) *AuthHandler {
	return &AuthHandler{session: session}
}

// Login is the only action whose failure is shown inline, on the login form.
func (h *AuthHandler) Login(c *gin.Context) {
	_, err := h.session.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		setFlash(c, flashLoginError, loginMessage(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	// the session refreshes whether or not the call succeeded
	_ = h.session.Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, "/")
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrMissingCredentials):
		return "Username and password are required."
	case api.IsStatus(err, http.StatusUnauthorized), api.IsStatus(err, http.StatusBadRequest):
		return "Invalid username or password."
	case api.IsTransport(err):
		return "Could not reach the server."
	default:
		return "Login failed."
	}
}
