package services

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"karmafeed/internal/models"
	"karmafeed/internal/utils"
)

type SessionClient interface {
	CurrentUser(ctx context.Context) models.User
	Login(ctx context.Context, username, password string) (models.User, error)
	Logout(ctx context.Context) error
}

// RefreshRequester is the leaderboard's signal input.
type RefreshRequester interface {
	RequestRefresh(ctx context.Context, trigger string)
}

// Karma is what the UI shows for a user. The numbers are copied from the last
// server record; nothing here adds to them locally.
type Karma struct {
	Username string
	Avatar   string
	Total    int
	Recent   int
	Tier     string
	TierIcon string
	Guest    bool
}

// KarmaOf builds the karma view of a server-provided user record.
func KarmaOf(u models.User) Karma {
	tier, icon := utils.GetUserLevel(u.TotalKarma)
	return Karma{
		Username: u.Username,
		Avatar:   u.Avatar,
		Total:    u.TotalKarma,
		Recent:   u.RecentKarma,
		Tier:     tier,
		TierIcon: icon,
		Guest:    u.IsGuest(),
	}
}

// Session tracks who the viewer is.
type Session struct {
	client      SessionClient
	leaderboard RefreshRequester

	mu   sync.RWMutex
	user models.User
}

func NewSession(client SessionClient, leaderboard RefreshRequester, guest models.User) *Session {
	return &Session{client: client, leaderboard: leaderboard, user: guest}
}

func (s *Session) Current() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Karma() Karma {
	return KarmaOf(s.Current())
}

// Refresh re-fetches the current user, falling back to the guest identity, and
// asks the leaderboard to refresh as well.
func (s *Session) Refresh(ctx context.Context) models.User {
	u := s.client.CurrentUser(ctx)
	s.set(u)
	if s.leaderboard != nil {
		s.leaderboard.RequestRefresh(ctx, TriggerSignal)
	}
	return u
}

// Login leaves the session untouched when the server rejects the credentials.
func (s *Session) Login(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.client.Login(ctx, username, password)
	if err != nil {
		log.WithError(err).WithField("username", username).Warn("Login failed")
		return models.User{}, err
	}
	s.set(u)
	log.WithField("username", u.Username).Info("Logged in")
	if s.leaderboard != nil {
		s.leaderboard.RequestRefresh(ctx, TriggerSignal)
	}
	return u, nil
}

// Logout always refreshes the local identity, even when the logout call fails.
// The call's error is still returned.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	if err != nil {
		log.WithError(err).Warn("Logout failed, refreshing session anyway")
	}
	s.Refresh(ctx)
	return err
}

// KarmaChanged is the advisory signal raised after a like: the viewer's or
// someone else's karma may have moved, so both views are re-fetched.
func (s *Session) KarmaChanged(ctx context.Context) {
	s.Refresh(ctx)
}

func (s *Session) set(u models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
