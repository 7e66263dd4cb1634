// Package engagement holds the optimistic like transitions. The functions are
// pure; callers reconcile with the server themselves.
package engagement

import (
	"karmafeed/internal/models"
)

// ToggleLike flips the like state of the post with the given id and returns a
// new slice. Untouched entries keep their pointers; the target is replaced by
// a modified copy. An unknown id returns an equal slice.
func ToggleLike(posts []*models.Post, id string) []*models.Post {
	out := make([]*models.Post, len(posts))
	for i, p := range posts {
		if p == nil || p.ID != id {
			out[i] = p
			continue
		}
		next := *p
		next.IsLiked, next.LikesCount = toggle(p.IsLiked, p.LikesCount)
		out[i] = &next
	}
	return out
}

// ToggleComment flips a single comment node. Its replies are left as they are;
// the thread is refetched after the server confirms.
func ToggleComment(c models.Comment) models.Comment {
	c.IsLiked, c.LikesCount = toggle(c.IsLiked, c.LikesCount)
	return c
}

// Lookup returns the post with the given id.
func Lookup(posts []*models.Post, id string) (*models.Post, bool) {
	for _, p := range posts {
		if p != nil && p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func toggle(liked bool, count int) (bool, int) {
	if liked {
		return false, count - 1
	}
	return true, count + 1
}
