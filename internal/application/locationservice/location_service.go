package locationservice

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type ILocationService interface {
	// UpdateLocation records the stop a driver reported for their bus and
	// broadcasts the new position to dashboard clients.
	UpdateLocation(ctx context.Context, driverID, stop string) (*models.Bus, error)

	// GetBusLocation resolves a bus's current stop to coordinates, served
	// from the geocode cache when warm.
	GetBusLocation(ctx context.Context, busID string) (*models.Bus, *models.Location, error)
}
