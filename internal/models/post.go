package models

import (
	"time"
)

type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        User      `json:"author"` // snapshot taken at fetch time
	CreatedAt     time.Time `json:"createdAt"`
	IsLiked       bool      `json:"isLiked"` // per viewer
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
}

// LikeStatus is the server's answer to a like toggle.
type LikeStatus string

const (
	StatusLiked   LikeStatus = "liked"
	StatusUnliked LikeStatus = "unliked"
)

// Liked reports whether the toggle left the target liked.
func (s LikeStatus) Liked() bool {
	return s == StatusLiked
}
