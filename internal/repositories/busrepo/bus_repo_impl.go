package busrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/infrastructure/database"
)

type busRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IBusRepository {
	return &busRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *busRepository) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	var bus models.Bus
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, route, current_stop, updated_at, created_at
		 FROM buses WHERE id = $1`,
		id,
	).Scan(&bus.ID, &bus.Name, &bus.Route, &bus.CurrentStop, &bus.UpdatedAt, &bus.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrBusNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("bus_id", id).Msg("Failed to get bus")
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &bus, nil
}

func (r *busRepository) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, bus_id FROM drivers WHERE id = $1`,
		id,
	).Scan(&driver.ID, &driver.FullName, &driver.BusID)
	if err == sql.ErrNoRows {
		return nil, models.ErrDriverNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("driver_id", id).Msg("Failed to get driver")
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &driver, nil
}

func (r *busRepository) UpdateStop(ctx context.Context, busID, stop string) (*models.Bus, error) {
	var bus models.Bus
	err := r.db.QueryRowContext(ctx,
		`UPDATE buses SET current_stop = $1, updated_at = now()
		 WHERE id = $2
		 RETURNING id, name, route, current_stop, updated_at, created_at`,
		stop, busID,
	).Scan(&bus.ID, &bus.Name, &bus.Route, &bus.CurrentStop, &bus.UpdatedAt, &bus.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrBusNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("bus_id", busID).Msg("Failed to update bus stop")
		return nil, fmt.Errorf("failed to update bus stop: %w", err)
	}
	return &bus, nil
}
