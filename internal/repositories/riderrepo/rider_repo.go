package riderrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type IRiderRepository interface {
	// Create persists a new rider, assigning an ID when none is set.
	Create(ctx context.Context, rider *models.Rider) error

	// GetByID retrieves a rider, returning models.ErrRiderNotFound when
	// the ID does not exist.
	GetByID(ctx context.Context, id string) (*models.Rider, error)

	// Credit adds amount to the rider's balance and returns the new balance.
	Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// DeductBalance atomically subtracts amount iff the balance covers it.
	// It returns the resulting balance and whether the deduction happened;
	// on insufficient funds the current balance is returned unchanged.
	DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, bool, error)

	// AppendEmbedding adds a record to the rider's sequence and mirrors its
	// encoding into the legacy single-embedding field, both in one
	// transaction.
	AppendEmbedding(ctx context.Context, record *models.EmbeddingRecord) error

	// RetireEmbedding marks a record inactive. The row is kept; the
	// matcher and progress counters ignore it from then on.
	RetireEmbedding(ctx context.Context, riderID, recordID string) error

	// CountActiveEmbeddings counts the rider's non-retired records.
	CountActiveEmbeddings(ctx context.Context, riderID string) (int, error)

	// AllTemplates returns every rider that has at least one active record
	// or a legacy encoding, with the legacy encoding synthesized as a
	// single record only when no active records exist.
	AllTemplates(ctx context.Context) ([]models.RiderTemplates, error)
}
