package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"money_service/internal/cache"     // Redis cache helpers
	"money_service/internal/domain"    // Importing domain models
	"money_service/internal/negotiate" // Content negotiation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// UsingTokenRequest carries a session token inside the request body
type UsingTokenRequest struct {
	RequestToken string `json:"request_token" binding:"required"` // Token to resolve
}

// displayNameCacheKey builds the cache key for a token's display name
func displayNameCacheKey(token string) string {
	return "displayname:token:" + token
}

// DisplayNameHandler resolves a session token to the owner's display
// name. JSON only: the token travels in the body, which has no form
// equivalent.
func DisplayNameHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if negotiate.FromContext(c) != negotiate.JSON {
			c.Status(http.StatusUnsupportedMediaType) // No HTML rendition of this endpoint
			return
		}
		var req UsingTokenRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := context.Background()                        // Context for Redis operations
		cacheKey := displayNameCacheKey(req.RequestToken)  // Cache key for this token
		var name string                                    // Resolved display name
		found, err := cache.Get(ctx, rdb, cacheKey, &name) // Try to get from cache
		if err == nil && found {
			c.JSON(http.StatusOK, name) // Return cached display name
			return
		}
		var names []string
		// Join the token row to its owning user
		if err := db.Model(&domain.AuthToken{}).
			Joins("INNER JOIN users ON users.username = auth_tokens.username").
			Where("auth_tokens.token = ?", req.RequestToken).
			Pluck("users.display_name", &names).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
			return
		}
		if len(names) == 0 {
			// Unknown token
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		name = names[0]
		_ = cache.Set(ctx, rdb, cacheKey, name, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, name)                             // Return the display name
	}
}
