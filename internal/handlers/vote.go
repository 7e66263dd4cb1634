package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"karmafeed/internal/services"
)

type VoteHandler struct {
	feed   *services.Feed
	thread *services.Thread
}

func NewVoteHandler(feed *services.Feed, thread *services.Thread) *VoteHandler {
	return &VoteHandler{feed: feed, thread: thread}
}

// LikePost toggles a post like. The optimistic state is what the next page
// shows; a failed call marks the post as unconfirmed.
func (h *VoteHandler) LikePost(c *gin.Context) {
	_, _ = h.feed.LikePost(c.Request.Context(), c.Param("id"))
	redirectBack(c, "/")
}

// LikeComment toggles a comment like and returns to the refetched thread.
func (h *VoteHandler) LikeComment(c *gin.Context) {
	postID := c.Param("id")
	_, _ = h.thread.LikeComment(c.Request.Context(), postID, c.Param("cid"))
	c.Redirect(http.StatusSeeOther, "/posts/"+postID+"/thread")
}
