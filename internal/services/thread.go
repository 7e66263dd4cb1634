package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"karmafeed/internal/engagement"
	"karmafeed/internal/models"
	"karmafeed/internal/threads"
)

type ThreadClient interface {
	CreateComment(ctx context.Context, postID, parentID, content string) error
	LikeComment(ctx context.Context, commentID string) (models.LikeStatus, error)
}

// Thread drives comment threads. Every mutation is followed by a full refetch
// of the post's thread.
type Thread struct {
	client ThreadClient
	store  *threads.Store
	karma  KarmaNotifier
}

func NewThread(client ThreadClient, store *threads.Store, karma KarmaNotifier) *Thread {
	return &Thread{client: client, store: store, karma: karma}
}

func (t *Thread) Open(ctx context.Context, postID string) ([]models.Comment, error) {
	return t.store.Load(ctx, postID)
}

// Close drops the cached thread.
func (t *Thread) Close(postID string) {
	t.store.Forget(postID)
}

// Comments returns the cached thread, if one is loaded.
func (t *Thread) Comments(postID string) ([]models.Comment, bool) {
	return t.store.Get(postID)
}

// Reply creates a comment under parentID (top-level when empty) and returns
// the refetched thread.
func (t *Thread) Reply(ctx context.Context, postID, parentID, content string) ([]models.Comment, error) {
	if err := t.client.CreateComment(ctx, postID, parentID, content); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"post_id":   postID,
			"parent_id": parentID,
		}).Warn("Reply failed")
		return nil, err
	}
	return t.store.AfterMutation(ctx, postID)
}

// LikeComment toggles a comment like. The returned node is the optimistic
// single-node flip; the cached thread itself is only ever replaced by the
// refetch that follows a confirmed like.
func (t *Thread) LikeComment(ctx context.Context, postID, commentID string) (models.Comment, error) {
	optimistic := models.Comment{ID: commentID, PostID: postID}
	if forest, ok := t.store.Get(postID); ok {
		if node, _, found := models.Find(forest, commentID); found {
			optimistic = engagement.ToggleComment(*node)
		}
	}

	if _, err := t.client.LikeComment(ctx, commentID); err != nil {
		likesTotal.WithLabelValues("comment", "error").Inc()
		log.WithError(err).WithField("comment_id", commentID).Warn("Comment like failed")
		return optimistic, err
	}
	likesTotal.WithLabelValues("comment", "ok").Inc()

	if t.karma != nil {
		t.karma.KarmaChanged(ctx)
	}
	if _, err := t.store.AfterMutation(ctx, postID); err != nil {
		return optimistic, err
	}
	return optimistic, nil
}
