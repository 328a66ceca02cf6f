package auth

import (
	"crypto/rand"     // Token randomness
	"encoding/base32" // Token encoding
	"time"            // Expiry arithmetic

	"money_service/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// AuthIdent names both the session cookie (browser clients) and the
// custom request header (API clients) carrying the opaque token.
const AuthIdent = "Money-Auth-Key"

// TokenLifetime is the sliding validity window of a session token.
// Every successful authenticated use pushes the expiry this far forward.
const TokenLifetime = 7 * 24 * time.Hour

// GenerateToken returns a new opaque random session token.
func GenerateToken() (string, error) {
	buf := make([]byte, 20) // 160 bits of randomness
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// IssueToken generates a token for the user and persists it with a full
// lifetime ahead. One user may hold any number of concurrent tokens.
func IssueToken(db *gorm.DB, username string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	row := domain.AuthToken{
		Token:           token,
		Username:        username,
		ExpireTimestamp: time.Now().Add(TokenLifetime).Unix(),
	}
	if err := db.Create(&row).Error; err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token to its owning username. Unknown or expired
// tokens resolve to anonymous (ok = false), never to an error. A hit
// slides the expiry forward as a side effect, so this is not a pure
// read: every authenticated request extends the session.
func Lookup(db *gorm.DB, token string) (string, bool) {
	var row domain.AuthToken
	err := db.Where("token = ? AND expire_timestamp > ?", token, time.Now().Unix()).First(&row).Error
	if err != nil {
		return "", false // Missing, expired, or storage failure: anonymous
	}
	// Slide the expiry; a failed slide does not invalidate this request
	db.Model(&domain.AuthToken{}).
		Where("token = ?", token).
		Update("expire_timestamp", time.Now().Add(TokenLifetime).Unix())
	return row.Username, true
}

// DeleteToken removes a session token. Deleting an absent token is not
// an error, which makes logout idempotent.
func DeleteToken(db *gorm.DB, token string) {
	db.Delete(&domain.AuthToken{}, "token = ?", token)
}
