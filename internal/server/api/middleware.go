package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chipsfactory/prodreport/internal/server/authz"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

const sessionKey = "session"

// RequireAuth resolves the bearer token to a live session identity and
// stores it in the request context. Requests without a resolvable session
// are rejected with 401.
func (s *Server) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		session, err := s.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireRole gates a route on the authorization policy. It MUST be used
// after RequireAuth.
func (s *Server) RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Authorize(currentSession(c), required); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}
