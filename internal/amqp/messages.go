package amqp

import (
	"encoding/json"
	"time"
)

// Tables named in change events.
const (
	TableTransactions = "transactions"
	TableOccupancy    = "occupancy"
)

// Operations named in change events.
const (
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationSet      = "set"
	OperationBackfill = "backfill"
)

// LedgerChangedMessage announces that a ledger table was rewritten.
// Consumers re-read the store; the message carries no row data.
type LedgerChangedMessage struct {
	Table     string    `json:"table"`
	Operation string    `json:"operation"`
	RecordID  string    `json:"record_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change event stamped with at.
func NewLedgerChangedMessage(table, operation, recordID string, at time.Time) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Table:     table,
		Operation: operation,
		RecordID:  recordID,
		Timestamp: at,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
