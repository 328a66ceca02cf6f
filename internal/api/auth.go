package api

import (
	"context"  // Context for Redis operations
	"errors"   // Duplicate-key detection
	"fmt"      // Code zero-padding
	"net/http" // HTTP status codes
	"strings"  // Username normalization

	"money_service/internal/auth"      // Session tokens and identity
	"money_service/internal/cache"     // Redis cache helpers
	"money_service/internal/domain"    // Importing domain models
	"money_service/internal/negotiate" // Content negotiation
	"money_service/internal/otp"       // TOTP engine
	"money_service/internal/web"       // Form fragments for HTML errors

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// RegisterRequest carries the signup fields of both body encodings
type RegisterRequest struct {
	Username    string `json:"username" form:"username" binding:"required"`         // Username must be provided
	DisplayName string `json:"display_name" form:"display_name" binding:"required"` // Display name must be provided
}

// LoginRequest carries the login fields of both body encodings
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // Username must be provided
	OTP      int    `json:"otp" form:"otp"`                              // Current 6-digit passcode; zero is a valid code
}

// RegisterHandler creates a user with a fresh TOTP secret
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind request body per negotiated type
		if err := negotiate.Bind(c, &req); err != nil {
			// If binding fails, return bad request alongside the form
			negotiate.Error(c, http.StatusBadRequest, "Invalid request", web.RegisterFormHTML)
			return
		}
		// The colon is reserved: it separates issuer and account in the
		// provisioning URL, so it can never appear in a username
		if strings.Contains(req.Username, ":") {
			negotiate.Error(c, http.StatusConflict, `Username contains forbidden ":" symbol`, web.RegisterFormHTML)
			return
		}
		username := strings.ToLower(req.Username) // Normalize for case-insensitive uniqueness
		// Generate the TOTP key bound to this account
		key, err := otp.GenerateKey(username)
		if err != nil {
			negotiate.Error(c, http.StatusInternalServerError, "Failed to generate OTP secret", web.RegisterFormHTML)
			return
		}
		secret := key.Secret() // Base32 secret handed to the user exactly once
		user := domain.User{
			Username:    username,               // Normalized key
			DisplayName: req.DisplayName,        // As supplied
			Secret:      secret,                 // TOTP secret
			Money:       domain.StartingBalance, // Starting balance
			OTPVerified: false,                  // Not yet confirmed
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Duplicate (including case-insensitively via the normalized key)
				negotiate.Error(c, http.StatusConflict, "Username already exists", web.RegisterFormHTML)
				return
			}
			negotiate.Error(c, http.StatusInternalServerError, "Error while inserting user into database", web.RegisterFormHTML)
			return
		}
		// Log successful registration
		logrus.WithFields(logrus.Fields{
			"username": username, // New user
		}).Info("User registered")
		// HTML clients get the scannable QR image; API clients the raw artifact
		if negotiate.FromContext(c) == negotiate.HTML {
			qr, err := otp.QRCodeBase64(key)
			if err != nil {
				negotiate.Error(c, http.StatusInternalServerError, "Failed to render QR code", web.RegisterFormHTML)
				return
			}
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(web.RegisterSuccessFragment(qr, secret)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"secret": secret, "url": key.URL()})
	}
}

// LoginHandler verifies the current passcode and issues a session token
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind request body per negotiated type
		if err := negotiate.Bind(c, &req); err != nil {
			negotiate.Error(c, http.StatusBadRequest, "Invalid request", web.LoginFormHTML)
			return
		}
		username := strings.ToLower(req.Username) // Normalize before lookup
		var user domain.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			// Unknown user
			negotiate.Error(c, http.StatusNotFound, "User not found", web.LoginFormHTML)
			return
		}
		// Zero-pad so numeric clients keep their leading zeros
		code := fmt.Sprintf("%06d", req.OTP)
		if !otp.Verify(user.Secret, code) {
			negotiate.Error(c, http.StatusUnauthorized, "Incorrect passcode", web.LoginFormHTML)
			return
		}
		if negotiate.FromContext(c) == negotiate.HTML {
			// A browser already holding a session must log out first
			if existing, _ := c.Cookie(auth.AuthIdent); existing != "" {
				negotiate.Error(c, http.StatusBadRequest, "Already logged in", web.LoginFormHTML)
				return
			}
		}
		token, err := auth.IssueToken(db, username)
		if err != nil {
			negotiate.Error(c, http.StatusInternalServerError, "Could not insert new token into database", web.LoginFormHTML)
			return
		}
		// Log successful login
		logrus.WithFields(logrus.Fields{
			"username": username, // Authenticated user
		}).Info("User logged in")
		if negotiate.FromContext(c) == negotiate.HTML {
			// Cookie transport: http-only, same-site lax
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(auth.AuthIdent, token, int(auth.TokenLifetime.Seconds()), "/", "", false, true)
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(web.LoginGreetingFragment(user.DisplayName)))
			return
		}
		// Header-transport clients carry the token themselves
		c.JSON(http.StatusOK, gin.H{"auth_token": token})
	}
}

// LogoutHandler deletes the presented session token
func LogoutHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, token, ok := auth.CurrentUser(c)
		if !ok {
			// Nothing to log out from; answered 200 so htmx swaps the
			// message into the page like any other outcome
			negotiate.Error(c, http.StatusOK, "Not logged in", "")
			return
		}
		auth.DeleteToken(db, token) // Idempotent delete
		// Drop the cached display-name entry keyed by this token
		_ = cache.Delete(context.Background(), rdb, displayNameCacheKey(token))
		if negotiate.FromContext(c) == negotiate.HTML {
			// Clear the session cookie
			c.SetCookie(auth.AuthIdent, "", -1, "/", "", false, true)
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<p>Logged out</p>"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}
