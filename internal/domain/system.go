package domain

// SystemCounter Model (single row with Key 0 holding the visit count)
type SystemCounter struct {
	Key    int   `gorm:"primaryKey;autoIncrement:false;column:key"` // Always 0
	Visits int64 `gorm:"not null;default:0"`    // Page-view counter
}

// TableName keeps the original table name instead of the pluralized default.
func (SystemCounter) TableName() string {
	return "system"
}
