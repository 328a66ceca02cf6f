package middleware

import (
	"time" // Request duration

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request id generation
	"github.com/sirupsen/logrus" // Logging library
)

// requestIDKey stores the correlation id on the gin context.
const requestIDKey = "requestID"

// RequestID assigns every request a correlation id and echoes it back
// in the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID") // Honor an id supplied by a proxy
		if id == "" {
			id = uuid.NewString() // Otherwise mint one
		}
		c.Set(requestIDKey, id)      // Store for handlers and the logger
		c.Header("X-Request-ID", id) // Echo back to the client
		c.Next()                     // Proceed to the next handler
	}
}

// GetRequestID returns the correlation id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger emits one structured log line per completed request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timer
		c.Next()            // Handle the request
		logrus.WithFields(logrus.Fields{
			"request_id": GetRequestID(c),            // Correlation id
			"method":     c.Request.Method,           // HTTP method
			"path":       c.FullPath(),               // Route path
			"status":     c.Writer.Status(),          // Response status
			"duration":   time.Since(start).String(), // Handling time
		}).Info("Request completed")
	}
}
