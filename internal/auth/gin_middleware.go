package auth

import (
	"net/http"

	"ms-excursions/internal/models"

	"github.com/gin-gonic/gin"
)

const ginIdentityKey = "identity"

// GinMiddleware extracts the caller's identity for gin services sitting
// behind the gateway. The gateway has already verified the signature;
// here we only need the claims.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		identity, err := ExtractIdentityFromJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ginIdentityKey, identity)
		c.Next()
	}
}

// GinRequireRole rejects callers whose role is not in the allowed set.
// It must sit after GinMiddleware.
func GinRequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		identity, ok := IdentityFromGin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no verified identity"})
			return
		}
		if !allowed[identity.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(identity.Role) + " not permitted"})
			return
		}
		c.Next()
	}
}

// IdentityFromGin returns the identity stored by GinMiddleware.
func IdentityFromGin(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(ginIdentityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
