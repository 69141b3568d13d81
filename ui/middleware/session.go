package middleware

import (
	"net/http"
	"time"

	"grouprank/domain/core"

	"github.com/gin-gonic/gin"
)

// SessionKey is the gin context key holding the request's core.SessionID.
const SessionKey = "session_id"

// EnsureSession makes sure every request carries a session id cookie,
// issuing a fresh one when the cookie is missing or malformed.
func EnsureSession(cookieName string, ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		id, parseErr := core.ParseSessionID(raw)
		if err != nil || parseErr != nil {
			id = core.NewSessionID()
		}

		// Sliding expiry.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, id.String(), maxAge, "/", "", false, true)
		c.Set(SessionKey, id)

		c.Next()
	}
}

// SessionID returns the id set by EnsureSession.
func SessionID(c *gin.Context) (core.SessionID, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return "", false
	}
	id, ok := v.(core.SessionID)
	return id, ok
}
