package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/bizmarket-backend/config"
)

const SessionIDKey = "session_id"

// Session reads the anonymous session cookie, issuing a new one when it is
// missing or malformed. Quote carts are scoped to this id.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.New().String()
			GetLoggerFromContext(c).Debug("Issuing session cookie")
		}

		// Refresh on every request so active carts do not expire.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sid, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		c.Set(SessionIDKey, sid)

		c.Next()
	}
}

// GetSessionID returns the request's session id, or "" outside Session.
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
