package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yashrajoria/affiliate-storefront/common/auth"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey    = "userID"
	SessionCookieName = "storefront_session"
)

// SessionParser verifies session tokens.
type SessionParser interface {
	Parse(token string) (auth.Session, error)
}

// SessionMiddleware attaches the admin session to the request context when
// a bearer token or session cookie is present. A token that fails
// verification is treated like no token at all: the request continues
// anonymously and a stale cookie is cleared. Writes are refused later by
// the services, which require a session.
func SessionMiddleware(parser SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromCookie := false
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if v, err := c.Cookie(SessionCookieName); err == nil {
				token, fromCookie = v, true
			}
		}
		if token == "" {
			c.Next()
			return
		}

		session, err := parser.Parse(token)
		if err != nil {
			if fromCookie {
				ClearSessionCookie(c, false)
			}
			c.Next()
			return
		}

		c.Set(UserContextKey, session.UserID)
		c.Set("email", session.Email)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

// Timeout bounds every request context.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
