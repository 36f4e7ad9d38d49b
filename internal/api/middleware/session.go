package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie carries the visitor's session id
const SessionCookie = "casefetch_session"

const sessionIDKey = "session_id"

// Session makes sure every request has a session id, issuing a new cookie
// when the visitor has none or sends a malformed one. The cookie is
// refreshed on every request so it expires together with the stored data.
func Session(ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)

	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, maxAge, "/", "", secure, true)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// SessionID returns the id assigned by Session
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
