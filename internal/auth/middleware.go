package auth

import (
	"money_service/internal/negotiate" // Negotiated auth transport selection

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Context keys for the resolved identity.
const (
	ctxUserKey  = "authUser"  // Username of the authenticated subject
	ctxTokenKey = "authToken" // Token the subject presented
)

// Middleware resolves an optional authenticated subject for the request.
// The credential transport follows the negotiated type: browser clients
// present the token via the session cookie, API clients via the custom
// header, with no fallback between the two. Resolution fails open to
// anonymous; handlers that require a subject check CurrentUser themselves.
func Middleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		switch negotiate.FromContext(c) {
		case negotiate.HTML:
			token, _ = c.Cookie(AuthIdent) // Cookie transport for browsers
		case negotiate.JSON:
			token = c.GetHeader(AuthIdent) // Header transport for API clients
		}
		if token != "" {
			if username, ok := Lookup(db, token); ok {
				c.Set(ctxUserKey, username) // Authenticated subject
				c.Set(ctxTokenKey, token)   // Presented credential
			}
		}
		c.Next() // Anonymous requests proceed; handlers decide what needs auth
	}
}

// CurrentUser returns the authenticated subject of the request, if any.
func CurrentUser(c *gin.Context) (username, token string, ok bool) {
	u, uok := c.Get(ctxUserKey)
	t, tok := c.Get(ctxTokenKey)
	if !uok || !tok {
		return "", "", false
	}
	return u.(string), t.(string), true
}

// SetCurrentUser injects an authenticated subject into the context.
// Used by tests to stand in for Middleware.
func SetCurrentUser(c *gin.Context, username, token string) {
	c.Set(ctxUserKey, username)
	c.Set(ctxTokenKey, token)
}
