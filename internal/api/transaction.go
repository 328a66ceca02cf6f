package api

import (
	"math/rand" // Transaction id randomness
	"net/http"     // HTTP status codes
	"time"         // Creation timestamps

	"money_service/internal/auth"      // Authenticated subject lookup
	"money_service/internal/domain"    // Importing domain models
	"money_service/internal/negotiate" // Content negotiation
	"money_service/internal/notify"    // Notification registry

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // WebSocket upgrades
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// idLetters is the alphabet of transaction identifiers.
const idLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// transactionIDLength is fixed; collisions across 52^8 ids are treated
// as statistically negligible and not checked.
const transactionIDLength = 8

// randomID returns a random identifier of n letters.
func randomID(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = idLetters[rand.Intn(len(idLetters))]
	}
	return string(buf)
}

// upgrader accepts the websocket handshake for notification channels.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// RequestTransactionRequest carries the fields of a new transaction
type RequestTransactionRequest struct {
	Buyer  string `json:"buyer" form:"buyer" binding:"required"` // Counterparty who must accept or reject
	Name   string `json:"name" form:"name" binding:"required"`   // Free-text description
	Amount int64  `json:"amount" form:"amount"`                  // Signed amount in integer currency units
}

// RequestTransactionHandler creates a pending transaction with the
// caller as seller
func RequestTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		seller, _, ok := auth.CurrentUser(c)
		if !ok {
			// Transactions can only be requested by a logged-in user
			negotiate.Error(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		var req RequestTransactionRequest // Bind request body per negotiated type
		if err := negotiate.Bind(c, &req); err != nil {
			negotiate.Error(c, http.StatusBadRequest, "Invalid request", "")
			return
		}
		id := randomID(transactionIDLength) // Fresh identifier
		tx := domain.Transaction{
			ID:        id,                   // Random identifier
			Buyer:     req.Buyer,            // As supplied; existence not checked here
			Seller:    seller,               // The authenticated requester
			Name:      req.Name,             // Description
			Amount:    req.Amount,           // Amount
			Accepted:  domain.StatusPending, // Awaiting the buyer
			Timestamp: time.Now().Unix(),    // Creation time
		}
		if err := db.Create(&tx).Error; err != nil {
			negotiate.Error(c, http.StatusInternalServerError, "Failed to create transaction", "")
			return
		}
		// Log transaction creation
		logrus.WithFields(logrus.Fields{
			"transaction_id": id,         // New transaction
			"seller":         seller,     // Requesting side
			"buyer":          req.Buyer,  // Deciding side
			"amount":         req.Amount, // Requested amount
		}).Info("Transaction requested")
		c.JSON(http.StatusOK, id) // The id is the whole payload
	}
}

// AcceptTransactionHandler resolves a pending transaction as accepted
func AcceptTransactionHandler(db *gorm.DB, reg *notify.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondTransaction(c, db, reg, true)
	}
}

// RejectTransactionHandler resolves a pending transaction as rejected
func RejectTransactionHandler(db *gorm.DB, reg *notify.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondTransaction(c, db, reg, false)
	}
}

// respondTransaction applies the buyer's decision. The single guarded
// UPDATE is simultaneously the existence check, the ownership check,
// and the pending-status gate: zero affected rows means absent,
// not-the-buyer, or already resolved, and all three answer NotFound so
// existence never leaks to callers who are not entitled.
func respondTransaction(c *gin.Context, db *gorm.DB, reg *notify.Registry, accepted bool) {
	buyer, _, ok := auth.CurrentUser(c)
	if !ok {
		negotiate.Error(c, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id := c.Param("id") // Transaction identifier from the path
	status := domain.StatusRejected
	if accepted {
		status = domain.StatusAccepted
	}
	res := db.Model(&domain.Transaction{}).
		Where("id = ? AND buyer = ? AND accepted = ?", id, buyer, domain.StatusPending).
		Update("accepted", status)
	if res.Error != nil {
		negotiate.Error(c, http.StatusInternalServerError, "Failed to update transaction", "")
		return
	}
	if res.RowsAffected == 0 {
		negotiate.Error(c, http.StatusNotFound, "Transaction not found", "")
		return
	}
	// Log the resolution
	logrus.WithFields(logrus.Fields{
		"transaction_id": id,       // Resolved transaction
		"buyer":          buyer,    // Deciding side
		"accepted":       accepted, // Outcome
	}).Info("Transaction resolved")
	// Storage is updated before delivery, so a client reconnecting after
	// the notification always observes the resolved row
	reg.Notify(id, accepted)
	if accepted {
		c.JSON(http.StatusOK, gin.H{"message": "Transaction accepted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction rejected"})
}

// NotifyTransactionHandler upgrades the request to a websocket and
// parks it until the transaction resolves
func NotifyTransactionHandler(db *gorm.DB, reg *notify.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := auth.CurrentUser(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		id := c.Param("id") // Transaction identifier from the path
		// Only a party to the transaction may watch it
		var count int64
		err := db.Model(&domain.Transaction{}).
			Where("id = ? AND (buyer = ? OR seller = ?)", id, user, user).
			Count(&count).Error
		if err != nil || count == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Client gone or not a websocket handshake; registration skipped
			return
		}
		reg.Register(id, conn)
	}
}
