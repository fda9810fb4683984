package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FareSettled is published after a settlement commits. Duplicate
// suppressions publish nothing; they create no transaction.
type FareSettled struct {
	TransactionID string            `json:"transaction_id"`
	RiderID       string            `json:"rider_id"`
	RiderName     string            `json:"rider_name"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	Balance       decimal.Decimal   `json:"balance"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
