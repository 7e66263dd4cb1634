package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// WireID is an identifier as the backend sends it: a JSON number or a string.
// Both decode to the same string form so nothing downstream cares which.
type WireID string

func (id *WireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = WireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("wire id %s: %w", b, err)
	}
	*id = WireID(n.String())
	return nil
}

// MarshalJSON writes canonical numeric ids back as numbers and anything else,
// "007" included, as a string.
func (id WireID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isCanonicalNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id WireID) String() string {
	return string(id)
}

func isCanonicalNumber(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && strconv.FormatUint(n, 10) == s
}

// RawUser covers both user shapes on the wire: the snake_case leaderboard rows
// and the camelCase records returned by /me/ and /login/.
type RawUser struct {
	ID               WireID `json:"id"`
	Username         string `json:"username"`
	TotalKarma       *int   `json:"total_karma,omitempty"`
	RecentKarma      *int   `json:"recent_karma,omitempty"`
	TotalKarmaCamel  *int   `json:"totalKarma,omitempty"`
	RecentKarmaCamel *int   `json:"recentKarma,omitempty"`
}

type RawPost struct {
	ID           WireID  `json:"id"`
	Author       RawUser `json:"author"`
	Content      string  `json:"content"`
	Timestamp    string  `json:"timestamp"`
	LikeCount    *int    `json:"like_count,omitempty"`
	CommentCount *int    `json:"comment_count,omitempty"`
	UserHasLiked bool    `json:"user_has_liked"`
}

type RawComment struct {
	ID           WireID       `json:"id"`
	Post         WireID       `json:"post"`
	Parent       *WireID      `json:"parent"`
	Author       RawUser      `json:"author"`
	Content      string       `json:"content"`
	Timestamp    string       `json:"timestamp"`
	Replies      []RawComment `json:"replies,omitempty"`
	LikeCount    *int         `json:"like_count,omitempty"`
	UserHasLiked bool         `json:"user_has_liked"`
}

// RawLikeResult is the body of both like endpoints.
type RawLikeResult struct {
	Status string `json:"status"`
}

// CreatePostRequest is the body of POST /posts/.
type CreatePostRequest struct {
	Content string `json:"content"`
}

// CreateCommentRequest is the body of POST /comments/. A nil Parent is sent as
// JSON null and makes the comment top-level.
type CreateCommentRequest struct {
	Post    WireID  `json:"post"`
	Parent  *WireID `json:"parent"`
	Content string  `json:"content"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
