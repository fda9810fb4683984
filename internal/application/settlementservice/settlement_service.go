package settlementservice

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type ISettlementService interface {
	// Settle charges the fixed fare to a matched rider. The duplicate
	// window check and the balance decision execute as one atomic unit per
	// rider; the outcome is always a business result, never an error,
	// unless the store itself fails.
	Settle(ctx context.Context, riderID, riderName string) (*models.SettlementResult, error)
}
