package mw

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allbin/protoboard/internal/model"
)

// UserKey is the context key the authenticated user is stored under
const UserKey = "user"

// Authenticator checks credentials. A nil user means they were rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// BasicAuth rejects requests without valid HTTP basic credentials
func BasicAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="protoboard"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
			return
		}
		if user == nil {
			c.Header("WWW-Authenticate", `Basic realm="protoboard"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by BasicAuth, if any
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
