package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"investment_portal/internal/session" // Session manager

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

const sessionKey = "session" // Context key holding *session.Session

// SessionAuthMiddleware validates the bearer token and loads its session
func SessionAuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")        // Extract the token string
		sess, err := sessions.Resolve(c.Request.Context(), tokenStr) // Verify token and load session
		if err != nil {
			if err != session.ErrInvalid {
				logrus.WithError(err).Error("Session lookup failed") // Store outage, not a bad token
			}
			// Abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		c.Set(sessionKey, sess)      // Store session in context
		c.Set("userID", sess.UserID) // Store userID in context
		c.Next()                     // Proceed to the next handler
	}
}

// CurrentSession returns the session placed in the context by SessionAuthMiddleware
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
