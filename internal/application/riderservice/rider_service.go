package riderservice

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type IRiderService interface {
	// Create provisions a rider account with an opening balance.
	Create(ctx context.Context, fullName string, initialBalance decimal.Decimal) (*models.Rider, error)

	// Get returns the rider with enrollment progress.
	Get(ctx context.Context, id string) (*models.RiderProfile, error)

	// Credit tops up the rider's balance and returns the new balance.
	Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// Transactions lists the rider's settlement history, newest first.
	Transactions(ctx context.Context, id string, limit int) ([]models.Transaction, error)
}
