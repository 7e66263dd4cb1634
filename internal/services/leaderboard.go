package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"karmafeed/internal/models"
)

// Refresh triggers, used as metric labels.
const (
	TriggerTimer   = "timer"
	TriggerSignal  = "signal"
	TriggerStartup = "startup"
	TriggerManual  = "manual"
)

type LeaderboardFetcher interface {
	Leaderboard(ctx context.Context) ([]models.User, error)
}

// Leaderboard keeps the top users by recent karma. Every refresh replaces the
// whole list. Overlapping refreshes are neither coalesced nor cancelled: the
// response that resolves last is the one that stays, whatever order the
// requests were issued in.
type Leaderboard struct {
	fetcher LeaderboardFetcher
	size    int

	mu        sync.RWMutex
	users     []models.User
	updatedAt time.Time

	inflight sync.WaitGroup
}

func NewLeaderboard(fetcher LeaderboardFetcher, size int) *Leaderboard {
	return &Leaderboard{fetcher: fetcher, size: size}
}

// Refresh fetches the leaderboard and replaces the displayed list. On failure
// the previous list is kept.
func (l *Leaderboard) Refresh(ctx context.Context, trigger string) error {
	users, err := l.fetcher.Leaderboard(ctx)
	if err != nil {
		leaderboardRefreshes.WithLabelValues(trigger, "error").Inc()
		log.WithError(err).WithField("trigger", trigger).Warn("Leaderboard refresh failed")
		return err
	}
	if l.size > 0 && len(users) > l.size {
		users = users[:l.size]
	}

	l.mu.Lock()
	l.users = users
	l.updatedAt = time.Now()
	l.mu.Unlock()

	leaderboardRefreshes.WithLabelValues(trigger, "ok").Inc()
	return nil
}

// RequestRefresh starts an independent refresh in the background. The refresh
// outlives ctx's cancellation but keeps its values.
func (l *Leaderboard) RequestRefresh(ctx context.Context, trigger string) {
	ctx = context.WithoutCancel(ctx)
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		_ = l.Refresh(ctx, trigger)
	}()
}

// Wait blocks until every refresh started by RequestRefresh has finished.
func (l *Leaderboard) Wait() {
	l.inflight.Wait()
}

func (l *Leaderboard) Users() []models.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.User(nil), l.users...)
}

// UpdatedAt is the time of the last successful refresh, zero if none.
func (l *Leaderboard) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updatedAt
}
