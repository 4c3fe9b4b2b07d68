package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mwangik8/sugar-board-backend/config"
)

// Actor is the authenticated caller as described by the identity
// provider's token. Authentication itself happens upstream; this service
// only verifies the signature and consumes the claims.
type Actor struct {
	UserID          uint
	Name            string
	Role            string
	StakeholderType string // set for stakeholder accounts (miller, importer, ...)
}

// AuthMiddleware verifies the bearer token and sets the actor in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		tokenStr := parts[1]
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTAccessSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id missing in token"})
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role missing in token"})
			return
		}

		actor := Actor{
			UserID: uint(userIDFloat),
			Role:   role,
		}
		if name, ok := claims["name"].(string); ok {
			actor.Name = name
		}
		if st, ok := claims["stakeholder_type"].(string); ok {
			actor.StakeholderType = st
		}

		c.Set("actor", actor)
		c.Set("user_id", actor.UserID)
		c.Set("claims", claims)

		c.Next()
	}
}

// ActorFromContext retrieves the authenticated actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (Actor, bool) {
	v, exists := c.Get("actor")
	if !exists {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
