package domain

// AuthToken Model
type AuthToken struct {
	Token           string `gorm:"primaryKey;size:128"` // Opaque bearer credential
	Username        string `gorm:"not null;index"`      // Owning user
	ExpireTimestamp int64  `gorm:"not null"`            // Unix seconds; valid iff > now
}
