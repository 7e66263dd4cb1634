package devbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(clk.now), clk
}

func mustUser(t *testing.T, s *Store, name string) *user {
	t.Helper()
	id, err := s.AddUser(name, "pw-"+name)
	require.NoError(t, err)
	u, ok := s.User(id)
	require.True(t, ok)
	return &u
}

func TestKarmaWeightsAndWindow(t *testing.T) {
	s, clk := newTestStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	p := s.CreatePost(alice, "hello")
	c, err := s.CreateComment(alice, p.ID, 0, "first")
	require.NoError(t, err)

	liked, err := s.TogglePostLike(bob, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	_, err = s.ToggleCommentLike(bob, c.ID)
	require.NoError(t, err)

	recent, total := s.Karma(alice.ID)
	assert.Equal(t, PostLikeKarma+CommentLikeKarma, recent)
	assert.Equal(t, PostLikeKarma+CommentLikeKarma, total)

	clk.t = clk.t.Add(KarmaWindow + time.Minute)
	recent, total = s.Karma(alice.ID)
	assert.Equal(t, 0, recent)
	assert.Equal(t, 6, total)
}

func TestToggleRemovesLike(t *testing.T) {
	s, _ := newTestStore(t)
	alice := mustUser(t, s, "alice")
	p := s.CreatePost(alice, "hello")

	liked, err := s.TogglePostLike(alice, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = s.TogglePostLike(alice, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	posts := s.Posts(alice)
	require.Len(t, posts, 1)
	assert.Equal(t, 0, posts[0].LikeCount)
	assert.False(t, posts[0].UserHasLiked)

	_, err = s.TogglePostLike(alice, 999)
	assert.ErrorIs(t, err, errNotFound)
}

func TestLeaderboardRanksRecentKarma(t *testing.T) {
	s, _ := newTestStore(t)
	names := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"}
	var users []*user
	for _, n := range names {
		users = append(users, mustUser(t, s, n))
	}
	liker := mustUser(t, s, "liker")

	// u(i) gets i post likes from distinct likers; u7 gets none.
	for i, u := range users[:6] {
		p := s.CreatePost(u, "post")
		for j := 0; j <= i; j++ {
			if j == 0 {
				_, _ = s.TogglePostLike(liker, p.ID)
				continue
			}
			_, _ = s.TogglePostLike(users[(i+j)%len(users)], p.ID)
		}
	}

	board := s.Leaderboard()
	require.Len(t, board, LeaderboardSize)
	assert.Equal(t, "u6", board[0].Username)
	assert.Equal(t, 30, board[0].RecentKarma)
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].RecentKarma, board[i].RecentKarma)
	}
	for _, row := range board {
		assert.NotEqual(t, "u7", row.Username)
		assert.NotEqual(t, "u1", row.Username)
	}
}

func TestThreadNestsAndOrders(t *testing.T) {
	s, clk := newTestStore(t)
	alice := mustUser(t, s, "alice")
	p := s.CreatePost(alice, "hello")

	first, err := s.CreateComment(alice, p.ID, 0, "first")
	require.NoError(t, err)
	clk.t = clk.t.Add(time.Second)
	second, err := s.CreateComment(nil, p.ID, 0, "second")
	require.NoError(t, err)
	clk.t = clk.t.Add(time.Second)
	reply, err := s.CreateComment(alice, p.ID, first.ID, "reply")
	require.NoError(t, err)

	tree, err := s.Thread(alice, p.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, first.ID, tree[0].ID)
	assert.Equal(t, second.ID, tree[1].ID)
	assert.Equal(t, guestUsername, tree[1].Author.Username)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	require.NotNil(t, tree[0].Replies[0].Parent)
	assert.Equal(t, first.ID, *tree[0].Replies[0].Parent)
	assert.NotNil(t, tree[1].Replies)

	other := s.CreatePost(alice, "other")
	_, err = s.CreateComment(alice, other.ID, first.ID, "cross-thread")
	assert.ErrorIs(t, err, errInvalidParent)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)
	mustUser(t, s, "alice")

	u, ok := s.Authenticate("Alice", "pw-alice")
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	_, ok = s.Authenticate("alice", "wrong")
	assert.False(t, ok)
	_, ok = s.Authenticate("nobody", "pw")
	assert.False(t, ok)
}
