// Package threads caches the materialized comment forest of each opened post.
// Every load and every post-mutation refresh replaces the whole forest; nodes
// are never spliced in locally.
package threads

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"karmafeed/internal/models"
	"karmafeed/internal/utils"
)

var loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "karmafeed",
	Subsystem: "threads",
	Name:      "loads_total",
	Help:      "Full comment-thread fetches",
}, []string{"reason", "result"})

const (
	reasonLoad     = "load"
	reasonMutation = "mutation"
)

// Fetcher returns the full comment forest of a post.
type Fetcher interface {
	Comments(ctx context.Context, postID string) ([]models.Comment, error)
}

type Store struct {
	fetcher Fetcher
	cache   *utils.Cache[string, []models.Comment]
}

func NewStore(fetcher Fetcher, size int, ttl time.Duration) (*Store, error) {
	cache, err := utils.NewCache[string, []models.Comment](size, ttl)
	if err != nil {
		return nil, fmt.Errorf("thread cache: %w", err)
	}
	return &Store{fetcher: fetcher, cache: cache}, nil
}

// Load fetches the thread and replaces whatever was cached for postID.
func (s *Store) Load(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.fetch(ctx, postID, reasonLoad)
}

// AfterMutation re-derives the thread after a comment was created or liked.
func (s *Store) AfterMutation(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.fetch(ctx, postID, reasonMutation)
}

// Get returns the cached forest without touching the network.
func (s *Store) Get(postID string) ([]models.Comment, bool) {
	return s.cache.Get(postID)
}

// Forget drops the cached forest. A fetch already in flight will still store its result.
func (s *Store) Forget(postID string) {
	s.cache.Delete(postID)
}

func (s *Store) fetch(ctx context.Context, postID, reason string) ([]models.Comment, error) {
	forest, err := s.fetcher.Comments(ctx, postID)
	if err != nil {
		loadsTotal.WithLabelValues(reason, "error").Inc()
		log.WithError(err).WithFields(log.Fields{
			"post_id": postID,
			"reason":  reason,
		}).Warn("Thread fetch failed, keeping cached thread")
		return nil, fmt.Errorf("load thread %s: %w", postID, err)
	}
	if forest == nil {
		forest = []models.Comment{}
	}
	loadsTotal.WithLabelValues(reason, "ok").Inc()
	s.cache.Set(postID, forest)
	return forest, nil
}
