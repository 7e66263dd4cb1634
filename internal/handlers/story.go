package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"karmafeed/internal/utils"
)

type StoryHandler struct {
	feed        *services.Feed
	thread      *services.Thread
	leaderboard *services.Leaderboard
}

func NewStoryHandler(feed *services.Feed, thread *services.Thread, leaderboard *services.Leaderboard) *StoryHandler {
	return &StoryHandler{feed: feed, thread: thread, leaderboard: leaderboard}
}

// List renders the feed. It fetches only when nothing was loaded yet or a
// refresh is asked for, so unconfirmed likes stay visible until then.
func (h *StoryHandler) List(c *gin.Context) {
	if !h.feed.Loaded() || c.Query("refresh") == "1" {
		// failure is logged by the feed; the stale list is shown
		_ = h.feed.Refresh(c.Request.Context())
	}

	posts := h.feed.Posts()
	if c.Query("sort") == "hot" {
		posts = hottest(posts, time.Now())
	}

	Render(c, http.StatusOK, "feed.html", gin.H{
		"Posts":       posts,
		"Diverged":    h.feed.DivergedIDs(),
		"Leaderboard": h.leaderboard.Users(),
		"LoginError":  popFlash(c, flashLoginError),
	})
}

// hottest orders a copy of posts by engagement decayed with age.
func hottest(posts []*models.Post, now time.Time) []*models.Post {
	out := append([]*models.Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		return utils.CalculateScore(out[i].CreatedAt, now, out[i].LikesCount, out[i].CommentsCount) >
			utils.CalculateScore(out[j].CreatedAt, now, out[j].LikesCount, out[j].CommentsCount)
	})
	return out
}

// Create publishes a post. Failures leave the feed as it was.
func (h *StoryHandler) Create(c *gin.Context) {
	// errors are logged by the gateway and feed
	_ = h.feed.CreatePost(c.Request.Context(), c.PostForm("content"))
	c.Redirect(http.StatusSeeOther, "/")
}

// Detail opens a post's thread, falling back to the last loaded version.
func (h *StoryHandler) Detail(c *gin.Context) {
	postID := c.Param("id")
	comments, err := h.thread.Open(c.Request.Context(), postID)
	stale := false
	if err != nil {
		cached, ok := h.thread.Comments(postID)
		if !ok {
			RenderError(c, http.StatusBadGateway, "Could not load this thread.")
			return
		}
		comments, stale = cached, true
	}

	post, _ := h.feed.Post(postID)
	Render(c, http.StatusOK, "thread.html", gin.H{
		"PostID":   postID,
		"Post":     post,
		"Comments": comments,
		"Stale":    stale,
	})
}

// Close drops the cached thread and goes back to the feed.
func (h *StoryHandler) Close(c *gin.Context) {
	h.thread.Close(c.Param("id"))
	c.Redirect(http.StatusSeeOther, "/")
}

// CreateComment adds a comment or, with parent_id, a reply.
func (h *StoryHandler) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.thread.Reply(ctx, postID, c.PostForm("parent_id"), c.PostForm("content")); err == nil {
		// keeps the post's comment count current
		_ = h.feed.Refresh(ctx)
	}
	c.Redirect(http.StatusSeeOther, "/posts/"+postID+"/thread")
}
