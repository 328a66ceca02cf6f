// Package notify holds the pending real-time connections waiting on
// transaction outcomes: one slot per transaction id, delivered to at
// most once.
package notify

import (
	"sync" // Mutex guarding the slot map

	"github.com/gorilla/websocket" // WebSocket connections
	"github.com/sirupsen/logrus"   // Logging library
)

// Outcome messages sent to a waiting connection.
const (
	MsgAccepted = "transaction_accepted"
	MsgRejected = "transaction_rejected"
)

// Registry maps a transaction id to at most one pending connection.
// The mutex only guards the map; connection I/O happens outside it so a
// slow socket cannot block unrelated registrations or deliveries.
type Registry struct {
	mu      sync.Mutex
	sockets map[string]*websocket.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sockets: make(map[string]*websocket.Conn)}
}

// Register installs conn as the waiting connection for the transaction.
// A prior occupant of the slot is closed before being replaced, so a
// reconnecting watcher wins the slot without leaking the old socket.
func (r *Registry) Register(id string, conn *websocket.Conn) {
	r.mu.Lock()
	prev := r.sockets[id]
	r.sockets[id] = conn
	r.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
		logrus.WithField("transaction_id", id).Info("Replaced pending notification socket")
	}
}

// Notify removes the slot for the transaction and, if a connection was
// waiting, sends it a single outcome message and closes it. An empty
// slot notifies nobody; delivery is best-effort, fire-and-forget.
func (r *Registry) Notify(id string, accepted bool) {
	r.mu.Lock()
	conn := r.sockets[id]
	delete(r.sockets, id)
	r.mu.Unlock()
	if conn == nil {
		return
	}
	msg := MsgRejected
	if accepted {
		msg = MsgAccepted
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		logrus.WithFields(logrus.Fields{
			"transaction_id": id,          // Transaction being resolved
			"error":          err.Error(), // Write failure
		}).Warn("Failed to deliver transaction notification")
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}
