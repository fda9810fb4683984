package locationservice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/repositories/busrepo"
)

type locationService struct {
	busRepo     busrepo.IBusRepository
	geocoder    interfaces.GeocoderClient
	cache       interfaces.LocationCache
	broadcaster interfaces.PositionBroadcaster
	logger      zerolog.Logger
}

// New builds the location service. Cache and broadcaster may be nil when
// Redis or the WebSocket feed are disabled.
func New(
	busRepo busrepo.IBusRepository,
	geocoder interfaces.GeocoderClient,
	cache interfaces.LocationCache,
	broadcaster interfaces.PositionBroadcaster,
	logger zerolog.Logger,
) ILocationService {
	return &locationService{
		busRepo:     busRepo,
		geocoder:    geocoder,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *locationService) UpdateLocation(ctx context.Context, driverID, stop string) (*models.Bus, error) {
	driver, err := s.busRepo.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	bus, err := s.busRepo.UpdateStop(ctx, driver.BusID, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to update stop for bus %s: %w", driver.BusID, err)
	}

	s.logger.Info().
		Str("driver_id", driverID).
		Str("bus_id", bus.ID).
		Str("stop", stop).
		Msg("Bus position updated")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPosition(models.BusPositionUpdate{
			BusID:       bus.ID,
			Name:        bus.Name,
			Route:       bus.Route,
			CurrentStop: stop,
			UpdatedAt:   bus.UpdatedAt,
		})
	}

	return bus, nil
}

func (s *locationService) GetBusLocation(ctx context.Context, busID string) (*models.Bus, *models.Location, error) {
	bus, err := s.busRepo.GetBus(ctx, busID)
	if err != nil {
		return nil, nil, err
	}
	if bus.CurrentStop == nil || *bus.CurrentStop == "" {
		return bus, nil, nil
	}
	stop := *bus.CurrentStop

	if s.cache != nil {
		loc, err := s.cache.GetLocation(ctx, stop)
		if err != nil {
			s.logger.Warn().Err(err).Str("stop", stop).Msg("Geocode cache read failed")
		} else if loc != nil {
			return bus, loc, nil
		}
	}

	loc, err := s.geocoder.Geocode(ctx, stop)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to geocode stop %q: %w", stop, err)
	}

	if s.cache != nil && loc != nil {
		if err := s.cache.SetLocation(ctx, stop, loc); err != nil {
			s.logger.Warn().Err(err).Str("stop", stop).Msg("Geocode cache write failed")
		}
	}

	return bus, loc, nil
}
