package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newService() *Service {
	svc := NewService(store.NewMemoryStore(), NewTokens("test-secret", time.Hour), false)
	svc.SetHashCost(bcrypt.MinCost)
	return svc
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestTokensRejectBadInput(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokens("other-secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("user-1")
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	user, err := svc.Register(ctx, models.RegisterRequest{Name: " Ann ", Email: " Ann@Example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.NotEqual(t, "pw", user.PasswordHash)

	got, err := svc.Login(ctx, models.LoginRequest{Email: "ANN@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	loaded, err := svc.User(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, loaded.Email)
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.co"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, MsgCredentialsRequired, apperrors.Message(err, ""))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, models.RegisterRequest{Email: "A@B.CO", Password: "y"})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, MsgEmailInUse, apperrors.Message(err, ""))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "long@b.co", Password: strings.Repeat("p", 73)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, MsgPasswordTooLong, apperrors.Message(err, ""))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "long@b.co", Password: strings.Repeat("p", 72)})
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	_, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.co", Password: "right"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "a@b.co", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
	assert.Equal(t, MsgInvalidCredentials, apperrors.Message(err, ""))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@b.co", Password: "right"})
	assert.Equal(t, MsgInvalidCredentials, apperrors.Message(err, ""))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "a@b.co"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}

func TestUserMissing(t *testing.T) {
	_, err := newService().User(context.Background(), "ghost")
	assert.True(t, apperrors.Is(err, apperrors.KindAuth))
}

func newRouter(svc *Service) *gin.Engine {
	r := gin.New()
	r.POST("/session", func(c *gin.Context) {
		if err := svc.StartSession(c, &models.User{ID: "user-1"}); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		svc.EndSession(c)
		c.Status(http.StatusNoContent)
	})
	whoami := func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	}
	r.GET("/optional", svc.Optional(), whoami)
	r.GET("/required", svc.Required(), whoami)
	return r
}

func sessionCookie(t *testing.T, r *gin.Engine) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/session", nil))
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestSessionCookieAttributes(t *testing.T) {
	c := sessionCookie(t, newRouter(newService()))
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.NotEmpty(t, c.Value)
}

func TestMiddleware(t *testing.T) {
	r := newRouter(newService())
	cookie := sessionCookie(t, r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"","ok":false}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/required", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Not authenticated."}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/required", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user-1","ok":true}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"id":"","ok":false}`, w.Body.String())
}

func TestEndSessionExpiresCookie(t *testing.T) {
	r := newRouter(newService())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
