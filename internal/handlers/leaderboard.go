package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"karmafeed/internal/services"
)

type LeaderboardHandler struct {
	leaderboard *services.Leaderboard
}

func NewLeaderboardHandler(leaderboard *services.Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// JSON returns the displayed leaderboard as last refreshed.
func (h *LeaderboardHandler) JSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"users":     h.leaderboard.Users(),
		"updatedAt": h.leaderboard.UpdatedAt(),
	})
}
