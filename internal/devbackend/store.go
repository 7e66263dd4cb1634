package devbackend

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Karma weights and window, as the production backend computes them.
const (
	PostLikeKarma    = 5
	CommentLikeKarma = 1
	KarmaWindow      = 24 * time.Hour
	LeaderboardSize  = 5
	guestUsername    = "guest"
)

var (
	errNotFound      = errors.New("not found")
	errInvalidParent = errors.New("parent comment does not belong to this post")
)

type user struct {
	ID           int
	Username     string
	PasswordHash []byte
}

type post struct {
	ID        int
	AuthorID  int
	Content   string
	Timestamp time.Time
}

type comment struct {
	ID        int
	PostID    int
	ParentID  int // 0 for top-level
	AuthorID  int
	Content   string
	Timestamp time.Time
}

type like struct {
	UserID    int
	PostID    int // exactly one of PostID / CommentID is set
	CommentID int
	Timestamp time.Time
}

// Store keeps the whole backend in memory.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	users    map[int]*user
	byName   map[string]*user
	posts    map[int]*post
	comments map[int]*comment
	likes    []like
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		users:    make(map[int]*user),
		byName:   make(map[string]*user),
		posts:    make(map[int]*post),
		comments: make(map[int]*comment),
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// AddUser registers a user with a bcrypt-hashed password.
func (s *Store) AddUser(username, password string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byName[strings.ToLower(username)]; ok {
		u.PasswordHash = hash
		return u.ID, nil
	}
	u := &user{ID: s.id(), Username: username, PasswordHash: hash}
	s.users[u.ID] = u
	s.byName[strings.ToLower(username)] = u
	return u.ID, nil
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(username, password string) (user, bool) {
	s.mu.Lock()
	u, ok := s.byName[strings.ToLower(username)]
	s.mu.Unlock()
	if !ok || u.PasswordHash == nil {
		return user{}, false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return user{}, false
	}
	return *u, true
}

func (s *Store) User(id int) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user{}, false
	}
	return *u, true
}

// actor resolves the acting user; anonymous writes go to the shared guest account.
func (s *Store) actor(viewer *user) *user {
	if viewer != nil {
		if u, ok := s.users[viewer.ID]; ok {
			return u
		}
	}
	if u, ok := s.byName[guestUsername]; ok {
		return u
	}
	u := &user{ID: s.id(), Username: guestUsername}
	s.users[u.ID] = u
	s.byName[guestUsername] = u
	return u
}

func (s *Store) CreatePost(viewer *user, content string) postView {
	s.mu.Lock()
	defer s.mu.Unlock()
	author := s.actor(viewer)
	p := &post{ID: s.id(), AuthorID: author.ID, Content: content, Timestamp: s.now()}
	s.posts[p.ID] = p
	return s.postView(p, viewer)
}

// Posts returns the feed, newest first.
func (s *Store) Posts(viewer *user) []postView {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*post, 0, len(s.posts))
	for _, p := range s.posts {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].ID > list[j].ID
		}
		return list[i].Timestamp.After(list[j].Timestamp)
	})
	out := make([]postView, 0, len(list))
	for _, p := range list {
		out = append(out, s.postView(p, viewer))
	}
	return out
}

func (s *Store) CreateComment(viewer *user, postID, parentID int, content string) (commentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return commentView{}, errNotFound
	}
	if parentID != 0 {
		parent, ok := s.comments[parentID]
		if !ok {
			return commentView{}, errNotFound
		}
		if parent.PostID != postID {
			return commentView{}, errInvalidParent
		}
	}
	author := s.actor(viewer)
	c := &comment{
		ID:        s.id(),
		PostID:    postID,
		ParentID:  parentID,
		AuthorID:  author.ID,
		Content:   content,
		Timestamp: s.now(),
	}
	s.comments[c.ID] = c
	return s.commentView(c, viewer), nil
}

// Thread returns the nested comment tree of a post, siblings oldest first.
func (s *Store) Thread(viewer *user, postID int) ([]commentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, errNotFound
	}
	var all []*comment
	for _, c := range s.comments {
		if c.PostID == postID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].ID < all[j].ID
		}
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	children := make(map[int][]*comment)
	var roots []*comment
	for _, c := range all {
		if c.ParentID == 0 {
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}

	var build func(nodes []*comment) []commentView
	build = func(nodes []*comment) []commentView {
		out := make([]commentView, 0, len(nodes))
		for _, c := range nodes {
			v := s.commentView(c, viewer)
			v.Replies = build(children[c.ID])
			out = append(out, v)
		}
		return out
	}
	return build(roots), nil
}

// TogglePostLike returns true when the call created a like.
func (s *Store) TogglePostLike(viewer *user, postID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return false, errNotFound
	}
	return s.toggle(s.actor(viewer).ID, postID, 0), nil
}

func (s *Store) ToggleCommentLike(viewer *user, commentID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[commentID]; !ok {
		return false, errNotFound
	}
	return s.toggle(s.actor(viewer).ID, 0, commentID), nil
}

func (s *Store) toggle(userID, postID, commentID int) bool {
	for i, l := range s.likes {
		if l.UserID == userID && l.PostID == postID && l.CommentID == commentID {
			s.likes = append(s.likes[:i], s.likes[i+1:]...)
			return false
		}
	}
	s.likes = append(s.likes, like{UserID: userID, PostID: postID, CommentID: commentID, Timestamp: s.now()})
	return true
}

// Karma returns the recent (last 24h) and lifetime karma received by a user.
func (s *Store) Karma(userID int) (recent, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma(userID)
}

func (s *Store) karma(userID int) (recent, total int) {
	since := s.now().Add(-KarmaWindow)
	for _, l := range s.likes {
		var authorID, weight int
		if l.PostID != 0 {
			if p, ok := s.posts[l.PostID]; ok {
				authorID, weight = p.AuthorID, PostLikeKarma
			}
		} else if c, ok := s.comments[l.CommentID]; ok {
			authorID, weight = c.AuthorID, CommentLikeKarma
		}
		if authorID != userID {
			continue
		}
		total += weight
		if !l.Timestamp.Before(since) {
			recent += weight
		}
	}
	return recent, total
}

// Leaderboard ranks users with recent karma by that karma, highest first.
func (s *Store) Leaderboard() []leaderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var rows []leaderView
	for _, id := range ids {
		recent, total := s.karma(id)
		if recent <= 0 {
			continue
		}
		rows = append(rows, leaderView{
			ID:          id,
			Username:    s.users[id].Username,
			RecentKarma: recent,
			TotalKarma:  total,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RecentKarma > rows[j].RecentKarma
	})
	if len(rows) > LeaderboardSize {
		rows = rows[:LeaderboardSize]
	}
	return rows
}

func (s *Store) likedBy(viewer *user, postID, commentID int) bool {
	if viewer == nil {
		return false
	}
	for _, l := range s.likes {
		if l.UserID == viewer.ID && l.PostID == postID && l.CommentID == commentID {
			return true
		}
	}
	return false
}

func (s *Store) postView(p *post, viewer *user) postView {
	v := postView{
		ID:           p.ID,
		Author:       s.authorView(p.AuthorID),
		Content:      p.Content,
		Timestamp:    formatTime(p.Timestamp),
		UserHasLiked: s.likedBy(viewer, p.ID, 0),
	}
	for _, l := range s.likes {
		if l.PostID == p.ID {
			v.LikeCount++
		}
	}
	for _, c := range s.comments {
		if c.PostID == p.ID {
			v.CommentCount++
		}
	}
	return v
}

func (s *Store) commentView(c *comment, viewer *user) commentView {
	v := commentView{
		ID:           c.ID,
		Post:         c.PostID,
		Author:       s.authorView(c.AuthorID),
		Content:      c.Content,
		Timestamp:    formatTime(c.Timestamp),
		UserHasLiked: s.likedBy(viewer, 0, c.ID),
		Replies:      []commentView{},
	}
	if c.ParentID != 0 {
		parent := c.ParentID
		v.Parent = &parent
	}
	for _, l := range s.likes {
		if l.CommentID == c.ID {
			v.LikeCount++
		}
	}
	return v
}

func (s *Store) authorView(id int) authorView {
	u, ok := s.users[id]
	if !ok {
		return authorView{ID: id}
	}
	return authorView{ID: u.ID, Username: u.Username}
}

// formatTime matches the backend's ISO-8601 microsecond format.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}
