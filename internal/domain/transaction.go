package domain

// Transaction status values stored in the accepted column.
const (
	StatusPending  int8 = 0 // Waiting for the buyer's decision
	StatusAccepted int8 = 1 // Buyer accepted
	StatusRejected int8 = 2 // Buyer rejected
)

// Transaction Model
type Transaction struct {
	ID        string `gorm:"primaryKey;size:8"` // 8-character random identifier
	Buyer     string `gorm:"not null;index"`    // Username of the paying side
	Seller    string `gorm:"not null;index"`    // Username of the requesting side
	Name      string `gorm:"not null"`          // Free-text description
	Amount    int64  `gorm:"not null"`          // Signed amount in integer currency units
	Accepted  int8   `gorm:"not null;default:0"` // One of the Status constants above
	Timestamp int64  `gorm:"not null"`          // Unix seconds at creation
}
