package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"karmafeed/internal/models"
	"karmafeed/internal/transform"
)

// Client exposes the feed backend's REST contract as typed calls returning
// normalized entities.
type Client struct {
	gw *Gateway
	tr transform.Transformer
}

func NewClient(gw *Gateway, tr transform.Transformer) *Client {
	return &Client{gw: gw, tr: tr}
}

// Gateway returns the underlying session gateway.
func (c *Client) Gateway() *Gateway {
	return c.gw
}

// Avatar returns the synthesized avatar for username.
func (c *Client) Avatar(username string) string {
	return c.tr.Avatars.URL(username)
}

// Posts lists the feed.
func (c *Client) Posts(ctx context.Context) ([]*models.Post, error) {
	var raws []transform.RawPost
	if err := c.gw.Call(ctx, http.MethodGet, "/posts/", nil, &raws); err != nil {
		return nil, err
	}
	return c.tr.ToPosts(raws), nil
}

func (c *Client) CreatePost(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	return c.gw.Call(ctx, http.MethodPost, "/posts/", transform.CreatePostRequest{Content: content}, nil)
}

// LikePost toggles the viewer's like on a post.
func (c *Client) LikePost(ctx context.Context, postID string) (models.LikeStatus, error) {
	var res transform.RawLikeResult
	if err := c.gw.Call(ctx, http.MethodPost, "/posts/"+escape(postID)+"/like/", nil, &res); err != nil {
		return "", err
	}
	return transform.ToLikeStatus(res), nil
}

// Comments fetches the full comment tree of a post.
func (c *Client) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	var raws []transform.RawComment
	if err := c.gw.Call(ctx, http.MethodGet, "/posts/"+escape(postID)+"/comments/", nil, &raws); err != nil {
		return nil, err
	}
	return c.tr.ToCommentTree(raws), nil
}

// CreateComment adds a comment to postID. An empty parentID makes it top-level.
func (c *Client) CreateComment(ctx context.Context, postID, parentID, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	body := transform.CreateCommentRequest{
		Post:    transform.WireID(postID),
		Content: content,
	}
	if parentID != "" {
		parent := transform.WireID(parentID)
		body.Parent = &parent
	}
	return c.gw.Call(ctx, http.MethodPost, "/comments/", body, nil)
}

// LikeComment toggles the viewer's like on a comment.
func (c *Client) LikeComment(ctx context.Context, commentID string) (models.LikeStatus, error) {
	var res transform.RawLikeResult
	if err := c.gw.Call(ctx, http.MethodPost, "/comments/"+escape(commentID)+"/like/", nil, &res); err != nil {
		return "", err
	}
	return transform.ToLikeStatus(res), nil
}

// Leaderboard returns the top users by recent karma, in server order.
func (c *Client) Leaderboard(ctx context.Context) ([]models.User, error) {
	var raws []transform.RawUser
	if err := c.gw.Call(ctx, http.MethodGet, "/leaderboard/", nil, &raws); err != nil {
		return nil, err
	}
	return c.tr.ToUsers(raws), nil
}

// CurrentUser never fails: when /me/ cannot be fetched the guest identity is
// returned instead.
func (c *Client) CurrentUser(ctx context.Context) models.User {
	var raw transform.RawUser
	if err := c.gw.Call(ctx, http.MethodGet, "/me/", nil, &raw); err != nil {
		log.WithError(err).Info("Could not fetch current user, continuing as guest")
		return models.GuestUser(c.Avatar(models.GuestUsername))
	}
	return c.tr.ToUser(raw)
}

func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	var raw transform.RawUser
	err := c.gw.Call(ctx, http.MethodPost, "/login/", transform.LoginRequest{
		Username: username,
		Password: password,
	}, &raw)
	if err != nil {
		return models.User{}, fmt.Errorf("login %s: %w", username, err)
	}
	return c.tr.ToUser(raw), nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.gw.Call(ctx, http.MethodPost, "/logout/", nil, nil)
}

func escape(id string) string {
	return url.PathEscape(id)
}
