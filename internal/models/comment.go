package models

import (
	"time"
)

// MaxReplyDepth is where the reply affordance stops. Storage depth is unbounded.
const MaxReplyDepth = 4

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Content    string    `json:"content"`
	Author     User      `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
	IsLiked    bool      `json:"isLiked"`
	LikesCount int       `json:"likesCount"`
	ParentID   *string   `json:"parentId"` // nil for top-level comments
	Replies    []Comment `json:"replies"`  // owned by this node, server order
}

// IsTopLevel reports whether c hangs directly off the post.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CanReply reports whether a node at depth still offers a reply action.
func CanReply(depth int) bool {
	return depth < MaxReplyDepth
}

// Walk visits every node depth-first in sibling order. Returning false from fn
// stops the walk.
func Walk(forest []Comment, fn func(c *Comment, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []Comment, depth int, fn func(c *Comment, depth int) bool) bool {
	for i := range nodes {
		if !fn(&nodes[i], depth) {
			return false
		}
		if !walk(nodes[i].Replies, depth+1, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id and its depth (0 for top-level).
func Find(forest []Comment, id string) (*Comment, int, bool) {
	var (
		found *Comment
		at    int
	)
	Walk(forest, func(c *Comment, depth int) bool {
		if c.ID == id {
			found, at = c, depth
			return false
		}
		return true
	})
	return found, at, found != nil
}

// Count returns the number of nodes in the forest.
func Count(forest []Comment) int {
	n := 0
	Walk(forest, func(*Comment, int) bool {
		n++
		return true
	})
	return n
}
