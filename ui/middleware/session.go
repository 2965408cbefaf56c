package middleware

import (
	"net/http"
	"time"

	"churndash/internal"
	"churndash/internal/errors"
	"churndash/internal/session"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session ID
const CookieName = "churndash_session"

const sessionKey = "churndash.session"

// EnsureSession attaches the caller's session to the request, starting a
// fresh guest session when the cookie is absent, unknown or expired
func EnsureSession(sessions *session.Manager, logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(CookieName); err == nil {
			if s, ok := sessions.Get(id); ok {
				c.Set(sessionKey, s)
				c.Next()
				return
			}
		}

		s, err := sessions.Create()
		if err != nil {
			logger.Error("[EnsureSession] failed to create session: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable", "code": errors.CodeInternalError})
			return
		}
		SetCookie(c, s.ID)
		c.Set(sessionKey, s)
		c.Next()
	}
}

// Session returns the session attached by EnsureSession
func Session(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// RequireAuth rejects API calls from unauthenticated sessions with a 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := Session(c)
		if s == nil || !s.Snapshot().Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You need to log in", "code": errors.CodeUnauthorized})
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request through the application logger
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// SetCookie stores the session ID on the client
func SetCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, id, 0, "/", "", false, true)
}

// ClearCookie removes the session cookie
func ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
