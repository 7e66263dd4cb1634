// Package transform maps backend wire records onto the client's entities.
// Every function here is pure: no I/O, no logging, no shared state.
package transform

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"karmafeed/internal/models"
)

// DefaultAvatarBase is the avatar service the web client has always used.
const DefaultAvatarBase = "https://api.dicebear.com/7.x/avataaars/svg"

// Avatars synthesizes avatar URIs from usernames.
type Avatars struct {
	Base string
}

// URL returns the avatar for username. The same username always yields the same URL.
func (a Avatars) URL(username string) string {
	base := a.Base
	if base == "" {
		base = DefaultAvatarBase
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "seed=" + url.QueryEscape(username)
}

// Transformer carries the little configuration the mapping needs.
type Transformer struct {
	Avatars Avatars
}

func New(avatarBase string) Transformer {
	return Transformer{Avatars: Avatars{Base: avatarBase}}
}

func (t Transformer) ToUser(raw RawUser) models.User {
	return models.User{
		ID:          raw.ID.String(),
		Username:    raw.Username,
		Avatar:      t.Avatars.URL(raw.Username),
		TotalKarma:  firstInt(raw.TotalKarma, raw.TotalKarmaCamel),
		RecentKarma: firstInt(raw.RecentKarma, raw.RecentKarmaCamel),
	}
}

func (t Transformer) ToUsers(raws []RawUser) []models.User {
	out := make([]models.User, 0, len(raws))
	for _, r := range raws {
		out = append(out, t.ToUser(r))
	}
	return out
}

func (t Transformer) ToPost(raw RawPost) models.Post {
	return models.Post{
		ID:            raw.ID.String(),
		Content:       raw.Content,
		Author:        t.ToUser(raw.Author),
		CreatedAt:     ParseTimestamp(raw.Timestamp),
		IsLiked:       raw.UserHasLiked,
		LikesCount:    firstInt(raw.LikeCount),
		CommentsCount: firstInt(raw.CommentCount),
	}
}

// ToPosts returns the feed as pointers so the engagement reducer can keep
// untouched entries by reference.
func (t Transformer) ToPosts(raws []RawPost) []*models.Post {
	out := make([]*models.Post, 0, len(raws))
	for _, r := range raws {
		p := t.ToPost(r)
		out = append(out, &p)
	}
	return out
}

// ToCommentTree materializes a thread. Sibling order is kept exactly as the
// server sent it at every depth, and a missing replies field becomes an empty
// slice.
func (t Transformer) ToCommentTree(raws []RawComment) []models.Comment {
	out := make([]models.Comment, 0, len(raws))
	for _, r := range raws {
		out = append(out, t.toComment(r))
	}
	return out
}

func (t Transformer) toComment(raw RawComment) models.Comment {
	c := models.Comment{
		ID:         raw.ID.String(),
		PostID:     raw.Post.String(),
		Content:    raw.Content,
		Author:     t.ToUser(raw.Author),
		CreatedAt:  ParseTimestamp(raw.Timestamp),
		IsLiked:    raw.UserHasLiked,
		LikesCount: firstInt(raw.LikeCount),
		Replies:    t.ToCommentTree(raw.Replies),
	}
	if raw.Parent != nil && *raw.Parent != "" {
		parent := raw.Parent.String()
		c.ParentID = &parent
	}
	return c
}

// ToLikeStatus normalizes the like endpoints' answer.
func ToLikeStatus(raw RawLikeResult) models.LikeStatus {
	if strings.EqualFold(raw.Status, string(models.StatusLiked)) {
		return models.StatusLiked
	}
	return models.StatusUnliked
}

// ParseTimestamp accepts the backend's ISO-8601 variants. Strings without a zone
// are read as UTC. An unparsable value yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC()
	}
	ts, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
