package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried on the ledger events queue.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// LedgerEvent tells the worker that a user's ledger changed. It carries
// identifiers only; the worker re-reads state from the store so stale
// deliveries can never overwrite fresher data.
type LedgerEvent struct {
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id"`
	Category      string    `json:"category"`
	Kind          string    `json:"kind"`
	Op            string    `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(userID, transactionID int64, category, kind, op string) *LedgerEvent {
	return &LedgerEvent{
		UserID:        userID,
		TransactionID: transactionID,
		Category:      category,
		Kind:          kind,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
