package middleware

import (
	"errors"
	"net/http"

	"ecoscan/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the session id on pre-auth endpoints.
const SessionHeader = "X-Session-ID"

// SessionKey is the gin context key holding the resolved session snapshot.
const SessionKey = "session"

// SessionMiddleware resolves the session named in the X-Session-ID
// header and enforces the inactivity timeout. An expired session has
// already been reset by the manager; the client is told to start over
// at login.
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Session-ID header required"})
			return
		}
		if _, ok := resolveSession(c, sessions, id); !ok {
			return
		}
		c.Next()
	}
}

// AuthSessionMiddleware guards authenticated endpoints. It reads the
// session id the JWT middleware extracted from the token and requires
// the session to still be live and authenticated: a hard timeout reset
// or a logout invalidates the token even before it expires.
func AuthSessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		idVal, exists := c.Get(SessionIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found in token, ensure JWT middleware runs first"})
			return
		}
		id, ok := idVal.(string)
		if !ok || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session id in token"})
			return
		}
		sess, err := sessions.Require(id, session.ViewAuthenticated)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
			case errors.Is(err, session.ErrWrongView):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session is not authenticated"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown session"})
			}
			return
		}
		if sess.User == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session is not authenticated"})
			return
		}
		c.Set(SessionKey, sess)
		c.Set(AuthNameKey, sess.User.Name)
		c.Next()
	}
}

func resolveSession(c *gin.Context, sessions *session.Manager, id string) (session.Session, bool) {
	sess, err := sessions.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
		case errors.Is(err, session.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown session"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
		}
		return session.Session{}, false
	}
	c.Set(SessionKey, sess)
	return sess, true
}
