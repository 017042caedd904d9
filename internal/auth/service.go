// Package auth registers users, checks passwords and manages the signed
// session cookie.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/store"
)

// CookieName is the session cookie.
const CookieName = "token"

// User-facing messages.
const (
	MsgCredentialsRequired = "Email and password are required."
	MsgEmailInUse          = "Email is already in use."
	MsgInvalidCredentials  = "Invalid credentials."
	MsgNotAuthenticated    = "Not authenticated."
	MsgLoggedOut           = "Logged out."
	MsgRegisterFailed      = "Failed to register user."
	MsgLoginFailed         = "Failed to log in."
	MsgPasswordTooLong     = "Password must be at most 72 bytes."
)

// Service implements register, login and session lookup.
type Service struct {
	users        store.UserStore
	tokens       *Tokens
	cookieSecure bool
	hashCost     int
	now          func() time.Time
}

func NewService(users store.UserStore, tokens *Tokens, cookieSecure bool) *Service {
	return &Service{
		users:        users,
		tokens:       tokens,
		cookieSecure: cookieSecure,
		hashCost:     bcrypt.DefaultCost,
		now:          time.Now,
	}
}

// bcrypt only reads the first 72 bytes of a password.
const maxPasswordBytes = 72

// SetHashCost overrides the bcrypt cost.
func (s *Service) SetHashCost(cost int) { s.hashCost = cost }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The email must be unused.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, apperrors.Validation(MsgCredentialsRequired)
	}
	if len(req.Password) > maxPasswordBytes {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, apperrors.Validation(MsgPasswordTooLong)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		return nil, apperrors.Conflict(MsgEmailInUse)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Internal(MsgRegisterFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return nil, apperrors.Internal(MsgRegisterFailed, err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
			return nil, apperrors.Conflict(MsgEmailInUse)
		}
		return nil, apperrors.Internal(MsgRegisterFailed, err)
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	log.WithFields(log.Fields{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords look the same.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, apperrors.Validation(MsgCredentialsRequired)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, apperrors.Auth(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal(MsgLoginFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, apperrors.Auth(MsgInvalidCredentials)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return user, nil
}

// User loads the account behind a session.
func (s *Service) User(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Auth(MsgNotAuthenticated)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load user.", err)
	}
	return user, nil
}

// StartSession issues a token for user and sets the session cookie.
func (s *Service) StartSession(c *gin.Context, user *models.User) error {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return apperrors.Internal("Failed to start session.", err)
	}
	s.writeCookie(c, token, int(s.tokens.TTL().Seconds()))
	return nil
}

// EndSession clears the session cookie.
func (s *Service) EndSession(c *gin.Context) {
	s.writeCookie(c, "", -1)
}

func (s *Service) writeCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
