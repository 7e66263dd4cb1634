package services

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"karmafeed/internal/engagement"
	"karmafeed/internal/models"
)

// ErrUnknownPost is returned when liking a post that is not in the loaded feed.
var ErrUnknownPost = errors.New("post is not in the feed")

type FeedClient interface {
	Posts(ctx context.Context) ([]*models.Post, error)
	CreatePost(ctx context.Context, content string) error
	LikePost(ctx context.Context, postID string) (models.LikeStatus, error)
}

// KarmaNotifier receives the advisory signal raised after a successful like.
type KarmaNotifier interface {
	KarmaChanged(ctx context.Context)
}

// Feed holds the viewer's post list. Likes are applied locally before the
// server confirms them. A post whose like failed, or whose confirmed state
// disagrees with the local flip, is marked diverged until the next successful
// Refresh replaces the list.
type Feed struct {
	client FeedClient
	karma  KarmaNotifier

	mu       sync.RWMutex
	posts    []*models.Post
	loaded   bool
	diverged map[string]bool
}

func NewFeed(client FeedClient, karma KarmaNotifier) *Feed {
	return &Feed{client: client, karma: karma, diverged: make(map[string]bool)}
}

// Refresh replaces the feed with the server's list.
func (f *Feed) Refresh(ctx context.Context) error {
	posts, err := f.client.Posts(ctx)
	if err != nil {
		log.WithError(err).Warn("Feed refresh failed, keeping current posts")
		return err
	}

	f.mu.Lock()
	f.posts = posts
	f.loaded = true
	f.diverged = make(map[string]bool)
	f.mu.Unlock()
	divergedPosts.Set(0)
	return nil
}

// Posts returns the current list. Entries are shared and must not be modified.
func (f *Feed) Posts() []*models.Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*models.Post(nil), f.posts...)
}

// Loaded reports whether a refresh has ever succeeded.
func (f *Feed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// DivergedIDs returns the set of posts whose like state is unconfirmed.
func (f *Feed) DivergedIDs() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]bool, len(f.diverged))
	for id := range f.diverged {
		out[id] = true
	}
	return out
}

func (f *Feed) Post(id string) (*models.Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return engagement.Lookup(f.posts, id)
}

// CreatePost publishes a post and reloads the feed.
func (f *Feed) CreatePost(ctx context.Context, content string) error {
	if err := f.client.CreatePost(ctx, content); err != nil {
		return err
	}
	return f.Refresh(ctx)
}

// LikePost toggles the like locally, then asks the server to do the same. The
// returned post is the optimistic state.
func (f *Feed) LikePost(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	if _, ok := engagement.Lookup(f.posts, id); !ok {
		f.mu.Unlock()
		return nil, ErrUnknownPost
	}
	f.posts = engagement.ToggleLike(f.posts, id)
	optimistic, _ := engagement.Lookup(f.posts, id)
	f.mu.Unlock()

	logger := log.WithField("post_id", id)
	status, err := f.client.LikePost(ctx, id)
	if err != nil {
		likesTotal.WithLabelValues("post", "error").Inc()
		logger.WithError(err).Warn("Like failed, local state diverged until next refresh")
		f.markDiverged(id)
		return optimistic, err
	}
	likesTotal.WithLabelValues("post", "ok").Inc()

	if status.Liked() != optimistic.IsLiked {
		logger.WithField("status", status).Warn("Server like state disagrees with local state")
		f.markDiverged(id)
	}
	if f.karma != nil {
		f.karma.KarmaChanged(ctx)
	}
	return optimistic, nil
}

// Diverged reports whether the post's local like state is unconfirmed.
func (f *Feed) Diverged(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.diverged[id]
}

func (f *Feed) markDiverged(id string) {
	f.mu.Lock()
	f.diverged[id] = true
	n := len(f.diverged)
	f.mu.Unlock()
	divergedPosts.Set(float64(n))
}
