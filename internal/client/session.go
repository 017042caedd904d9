package client

import (
	"context"
	"sync"

	"github.com/ashendes/welcome-home/internal/models"
)

// Session caches who is signed in. It is filled by Login and Register,
// emptied by Logout and Invalidate, and re-read from the server by Refresh.
type Session struct {
	client *Client

	mu   sync.RWMutex
	user *models.PublicUser
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// User returns the cached identity.
func (s *Session) User() (models.PublicUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.PublicUser{}, false
	}
	return *s.user, true
}

func (s *Session) set(u *models.PublicUser) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// Invalidate forgets the cached identity without contacting the server.
func (s *Session) Invalidate() { s.set(nil) }

func (s *Session) Register(ctx context.Context, name, email, password string) (models.PublicUser, error) {
	u, err := s.client.Register(ctx, models.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return models.PublicUser{}, err
	}
	s.set(u)
	return *u, nil
}

func (s *Session) Login(ctx context.Context, email, password string) (models.PublicUser, error) {
	u, err := s.client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return models.PublicUser{}, err
	}
	s.set(u)
	return *u, nil
}

// Logout ends the server session. The local identity is dropped even when
// the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	s.Invalidate()
	return s.client.Logout(ctx)
}

// Refresh asks the server who is signed in. A 401 clears the session and is
// not an error; other failures leave the cache untouched.
func (s *Session) Refresh(ctx context.Context) (models.PublicUser, bool, error) {
	u, err := s.client.Me(ctx)
	if IsUnauthorized(err) {
		s.Invalidate()
		return models.PublicUser{}, false, nil
	}
	if err != nil {
		return models.PublicUser{}, false, err
	}
	s.set(u)
	return *u, true, nil
}
