package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the terminal outcome of a fare transaction. A
// transaction is decided exactly once at creation and never revisited.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "Pending"
	StatusApproved TransactionStatus = "Approved"
	StatusDeclined TransactionStatus = "Declined"
)

// Transaction is one fare charge attempt against a rider. Rows are
// append-only and form the audit trail for duplicate-window suppression.
type Transaction struct {
	ID        string            `json:"id" db:"id"`
	RiderID   string            `json:"rider_id" db:"rider_id"`
	Amount    decimal.Decimal   `json:"amount" db:"amount"`
	Status    TransactionStatus `json:"status" db:"status"`
	Timestamp time.Time         `json:"timestamp" db:"created_at"`
	Metadata  json.RawMessage   `json:"metadata,omitempty" db:"metadata"`
}

// SettlementOutcome classifies the result of a settle call. All three are
// successful business outcomes, never errors.
type SettlementOutcome string

const (
	OutcomeApproved  SettlementOutcome = "approved"
	OutcomeDeclined  SettlementOutcome = "declined"
	OutcomeDuplicate SettlementOutcome = "duplicate"
)

// SettlementResult reports what settle decided. Transaction is nil for
// duplicate suppression (no row is created); PriorTimestamp is set only
// then and carries the suppressing transaction's timestamp.
type SettlementResult struct {
	Outcome        SettlementOutcome `json:"outcome"`
	Transaction    *Transaction      `json:"transaction,omitempty"`
	Balance        decimal.Decimal   `json:"balance"`
	PriorTimestamp *time.Time        `json:"prior_timestamp,omitempty"`
}
