package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashendes/welcome-home/internal/models"
)

const userIDKey = "auth.userID"

func (s *Service) attach(c *gin.Context) {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return
	}
	if userID, err := s.tokens.Parse(raw); err == nil {
		c.Set(userIDKey, userID)
	}
}

// Optional attaches the caller's user id when the session cookie is valid.
// Requests without a valid cookie continue anonymously.
func (s *Service) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.attach(c)
		c.Next()
	}
}

// Required rejects requests without a valid session.
func (s *Service) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.attach(c)
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Message: MsgNotAuthenticated})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id attached by the middleware.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
