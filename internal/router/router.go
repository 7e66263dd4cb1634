package router

import (
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"karmafeed/internal/handlers"
	"karmafeed/internal/middleware"
	"karmafeed/internal/services"
	"karmafeed/internal/web"
)

// Deps are the stateful services the UI drives.
type Deps struct {
	Session       *services.Session
	Feed          *services.Feed
	Thread        *services.Thread
	Leaderboard   *services.Leaderboard
	SessionSecret string
}

// New builds the local UI engine.
func New(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.RequestLogger("web"), gin.Recovery())

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 3600})
	r.Use(sessions.Sessions("karmafeed_ui", store))
	r.Use(middleware.FormToken())

	renderer, err := web.Renderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.HTMLRender = renderer

	r.Use(middleware.LoadViewer(d.Session.Karma))

	RegisterRoutes(r, d)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	storyHandler := handlers.NewStoryHandler(d.Feed, d.Thread, d.Leaderboard)
	voteHandler := handlers.NewVoteHandler(d.Feed, d.Thread)
	authHandler := handlers.NewAuthHandler(d.Session)
	leaderboardHandler := handlers.NewLeaderboardHandler(d.Leaderboard)

	r.GET("/", storyHandler.List)                                    // feed
	r.POST("/posts", storyHandler.Create)                            // new post
	r.POST("/posts/:id/like", voteHandler.LikePost)                  // toggle post like
	r.GET("/posts/:id/thread", storyHandler.Detail)                  // open thread
	r.POST("/posts/:id/thread/close", storyHandler.Close)            // close thread
	r.POST("/posts/:id/comments", storyHandler.CreateComment)        // comment or reply
	r.POST("/posts/:id/comments/:cid/like", voteHandler.LikeComment) // toggle comment like

	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	r.GET("/leaderboard.json", leaderboardHandler.JSON)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
