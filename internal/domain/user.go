package domain

// User Model
type User struct {
	Username    string `gorm:"primaryKey;size:64"`                 // Lowercase-normalized unique username
	DisplayName string `gorm:"not null"`                           // Mutable display name
	Secret      string `gorm:"not null"`                           // Base32 TOTP secret, set once at registration
	Money       int64  `gorm:"not null"`                           // Balance in integer currency units
	OTPVerified bool   `gorm:"column:otp_verified;not null;default:false"` // Whether the OTP setup was confirmed
}

// StartingBalance is credited to every freshly registered user.
const StartingBalance int64 = 1000
