package transactionrepo

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type ITransactionRepository interface {
	// Create appends a transaction to the audit trail. Status must already
	// be terminal; rows are never updated.
	Create(ctx context.Context, tx *models.Transaction) error

	// GetLatestByRider returns the rider's newest transaction by timestamp
	// regardless of status, or nil when none exists.
	GetLatestByRider(ctx context.Context, riderID string) (*models.Transaction, error)

	// ListByRider returns the rider's transactions newest first.
	ListByRider(ctx context.Context, riderID string, limit int) ([]models.Transaction, error)
}
