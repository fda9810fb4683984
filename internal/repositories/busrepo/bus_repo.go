package busrepo

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type IBusRepository interface {
	GetBus(ctx context.Context, id string) (*models.Bus, error)
	GetDriver(ctx context.Context, id string) (*models.Driver, error)

	// UpdateStop records the driver-reported stop and returns the updated
	// bus.
	UpdateStop(ctx context.Context, busID, stop string) (*models.Bus, error)
}
