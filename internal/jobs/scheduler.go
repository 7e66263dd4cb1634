// Package jobs runs the periodic refreshes: the leaderboard poll and the
// viewer's own karma re-fetch.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"karmafeed/internal/models"
	"karmafeed/internal/services"
)

// LeaderboardRefresher is satisfied by *services.Leaderboard.
type LeaderboardRefresher interface {
	RequestRefresh(ctx context.Context, trigger string)
}

// SelfRefresher is satisfied by *services.Session.
type SelfRefresher interface {
	Refresh(ctx context.Context) models.User
}

type Scheduler struct {
	cron        *cron.Cron
	leaderboard LeaderboardRefresher
	self        SelfRefresher
	lbEvery     time.Duration
	selfEvery   time.Duration
}

func NewScheduler(leaderboard LeaderboardRefresher, self SelfRefresher, lbEvery, selfEvery time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		leaderboard: leaderboard,
		self:        self,
		lbEvery:     lbEvery,
		selfEvery:   selfEvery,
	}
}

// Start schedules both jobs. Each leaderboard tick starts an independent
// refresh, so a slow response never delays the next tick.
func (s *Scheduler) Start(ctx context.Context) {
	if s.leaderboard != nil && s.lbEvery > 0 {
		s.cron.Schedule(cron.Every(s.lbEvery), cron.FuncJob(func() {
			log.Debug("[CRON] Leaderboard refresh")
			s.leaderboard.RequestRefresh(ctx, services.TriggerTimer)
		}))
	}

	if s.self != nil && s.selfEvery > 0 {
		s.cron.Schedule(cron.Every(s.selfEvery), cron.FuncJob(func() {
			log.Debug("[CRON] Self refresh")
			s.self.Refresh(ctx)
		}))
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"leaderboard_every": s.lbEvery.String(),
		"self_every":        s.selfEvery.String(),
	}).Info("Scheduler started")
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
