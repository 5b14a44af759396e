package auth

import (
	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// Identity is the authenticated user bound to the current request.
type Identity struct {
	UserID    int
	Username  string
	SessionID string
}

func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(IdentityKey, identity)
}

// GetIdentity returns the request's identity, or false for anonymous requests.
func GetIdentity(c *gin.Context) (*Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}

	identity, ok := value.(*Identity)
	if !ok || identity == nil {
		return nil, false
	}

	return identity, true
}
