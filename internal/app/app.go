// Package app wires the client together: gateway, typed client, stores,
// services, scheduler and the local UI.
package app

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"karmafeed/internal/api"
	"karmafeed/internal/config"
	"karmafeed/internal/jobs"
	"karmafeed/internal/models"
	"karmafeed/internal/router"
	"karmafeed/internal/services"
	"karmafeed/internal/threads"
	"karmafeed/internal/transform"
)

type App struct {
	Config      *config.Config
	Client      *api.Client
	Session     *services.Session
	Feed        *services.Feed
	Thread      *services.Thread
	Leaderboard *services.Leaderboard
	Scheduler   *jobs.Scheduler
}

// New builds every component. Nothing talks to the network yet.
func New(cfg *config.Config) (*App, error) {
	return NewWithTransport(cfg, nil)
}

// NewWithTransport is New with an explicit HTTP transport, e.g. an in-process backend.
func NewWithTransport(cfg *config.Config, transport http.RoundTripper) (*App, error) {
	gw, err := api.NewGateway(api.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.HTTPTimeout,
		CSRFCookie:    cfg.CSRFCookie,
		CSRFHeader:    cfg.CSRFHeader,
		BootstrapPath: cfg.CSRFBootstrapPath,
		Transport:     transport,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	client := api.NewClient(gw, transform.New(cfg.AvatarBaseURL))

	store, err := threads.NewStore(client, cfg.ThreadCacheSize, cfg.ThreadCacheTTL)
	if err != nil {
		return nil, err
	}

	leaderboard := services.NewLeaderboard(client, cfg.LeaderboardSize)
	session := services.NewSession(client, leaderboard, models.GuestUser(client.Avatar(models.GuestUsername)))
	feed := services.NewFeed(client, session)
	thread := services.NewThread(client, store, session)

	return &App{
		Config:      cfg,
		Client:      client,
		Session:     session,
		Feed:        feed,
		Thread:      thread,
		Leaderboard: leaderboard,
		Scheduler:   jobs.NewScheduler(leaderboard, session, cfg.LeaderboardInterval, cfg.SelfRefreshInterval),
	}, nil
}

// Bootstrap establishes the identity first, logging in when credentials are
// configured, so the feed is fetched as that user. Feed and leaderboard then
// load concurrently.
func (a *App) Bootstrap(ctx context.Context) error {
	if a.Config.HasCredentials() {
		if _, err := a.Session.Login(ctx, a.Config.Username, a.Config.Password); err != nil {
			return err
		}
	} else {
		u := a.Session.Refresh(ctx)
		log.WithField("username", u.Username).Info("Session ready")
	}

	var g errgroup.Group
	g.Go(func() error {
		return a.Feed.Refresh(ctx)
	})
	g.Go(func() error {
		return a.Leaderboard.Refresh(ctx, services.TriggerStartup)
	})
	return g.Wait()
}

// Handler builds the local UI.
func (a *App) Handler() (http.Handler, error) {
	return router.New(router.Deps{
		Session:       a.Session,
		Feed:          a.Feed,
		Thread:        a.Thread,
		Leaderboard:   a.Leaderboard,
		SessionSecret: a.Config.UISessionSecret,
	})
}
