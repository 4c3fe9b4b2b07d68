package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role constants to avoid string typos
const (
	RoleCEO              = "ceo"
	RoleBoardAdmin       = "boardadmin"
	RoleReviewer         = "reviewer"
	RoleFieldCoordinator = "fieldcoordinator"
	RoleStakeholder      = "stakeholder"
	RoleMonitoringUser   = "monitoringuser"
)

// RBACMiddleware checks if the actor has one of the allowed roles
func RBACMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		for _, role := range allowedRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// RequireBoardAccess allows board-side staff, including read-only monitoring
func RequireBoardAccess() gin.HandlerFunc {
	return RBACMiddleware(RoleCEO, RoleBoardAdmin, RoleReviewer, RoleFieldCoordinator, RoleMonitoringUser)
}

// RequireWriteAccess excludes monitoring users from mutating endpoints
func RequireWriteAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if actor.Role == RoleMonitoringUser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only access"})
			return
		}
		c.Next()
	}
}
