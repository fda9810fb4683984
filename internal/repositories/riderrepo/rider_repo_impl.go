package riderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/infrastructure/database"
)

type riderRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IRiderRepository {
	return &riderRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *riderRepository) Create(ctx context.Context, rider *models.Rider) error {
	if rider.ID == "" {
		rider.ID = uuid.New().String()
	}
	now := time.Now()
	rider.CreatedAt = now
	rider.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO riders (id, full_name, balance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING rider_number`,
		rider.ID, rider.FullName, rider.Balance, rider.CreatedAt, rider.UpdatedAt,
	).Scan(&rider.RiderNumber)
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", rider.ID).Msg("Failed to create rider")
		return fmt.Errorf("failed to create rider: %w", err)
	}
	return nil
}

func (r *riderRepository) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	var rider models.Rider
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, rider_number, balance, face_encoding, created_at, updated_at
		 FROM riders WHERE id = $1`,
		id,
	).Scan(&rider.ID, &rider.FullName, &rider.RiderNumber, &rider.Balance,
		&rider.LegacyEncoding, &rider.CreatedAt, &rider.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrRiderNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", id).Msg("Failed to get rider")
		return nil, fmt.Errorf("failed to get rider: %w", err)
	}
	return &rider, nil
}

func (r *riderRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`UPDATE riders SET balance = balance + $1, updated_at = now()
		 WHERE id = $2 RETURNING balance`,
		amount, id,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, models.ErrRiderNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", id).Msg("Failed to credit rider")
		return decimal.Zero, fmt.Errorf("failed to credit rider: %w", err)
	}
	return balance, nil
}

func (r *riderRepository) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	// Compare-and-swap: the guarded UPDATE only fires when the balance
	// covers the fare, so two concurrent settlements can never both
	// approve against the same stale balance.
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`UPDATE riders SET balance = balance - $1, updated_at = now()
		 WHERE id = $2 AND balance >= $1 RETURNING balance`,
		amount, id,
	).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if err != sql.ErrNoRows {
		r.logger.Error().Err(err).Str("rider_id", id).Msg("Failed to deduct balance")
		return decimal.Zero, false, fmt.Errorf("failed to deduct balance: %w", err)
	}

	// No row updated: either the rider is missing or the funds are
	// insufficient. Read back to tell the two apart.
	err = r.db.QueryRowContext(ctx,
		`SELECT balance FROM riders WHERE id = $1`, id,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, models.ErrRiderNotFound
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, false, nil
}

func (r *riderRepository) AppendEmbedding(ctx context.Context, record *models.EmbeddingRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SchemaVersion == 0 {
		record.SchemaVersion = models.EmbeddingSchemaVersion
	}
	if record.CapturedAt.IsZero() {
		record.CapturedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Locking the rider row first serializes concurrent appends for the
	// same rider, keeping the legacy mirror in step with the newest record.
	var riderID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM riders WHERE id = $1 FOR UPDATE`, record.RiderID,
	).Scan(&riderID)
	if err == sql.ErrNoRows {
		return models.ErrRiderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock rider: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO embedding_records
		 (id, rider_id, angle, encoding, schema_version, face_width, face_height, captured_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.RiderID, record.Angle, record.Encoding, record.SchemaVersion,
		record.FaceWidth, record.FaceHeight, record.CapturedAt,
		pqtype.NullRawMessage{RawMessage: record.Metadata, Valid: record.Metadata != nil},
	)
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", record.RiderID).Msg("Failed to insert embedding record")
		return fmt.Errorf("failed to insert embedding record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE riders SET face_encoding = $1, updated_at = now() WHERE id = $2`,
		record.Encoding, record.RiderID,
	)
	if err != nil {
		return fmt.Errorf("failed to mirror legacy encoding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enrollment: %w", err)
	}
	return nil
}

func (r *riderRepository) RetireEmbedding(ctx context.Context, riderID, recordID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE embedding_records SET retired_at = now()
		 WHERE id = $1 AND rider_id = $2 AND retired_at IS NULL`,
		recordID, riderID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("record_id", recordID).Msg("Failed to retire embedding record")
		return fmt.Errorf("failed to retire embedding record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read retire result: %w", err)
	}
	if affected == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (r *riderRepository) CountActiveEmbeddings(ctx context.Context, riderID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM embedding_records WHERE rider_id = $1 AND retired_at IS NULL`,
		riderID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embedding records: %w", err)
	}
	return count, nil
}

func (r *riderRepository) AllTemplates(ctx context.Context) ([]models.RiderTemplates, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, balance, face_encoding FROM riders
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query riders: %w", err)
	}
	defer rows.Close()

	var order []string
	byRider := make(map[string]*models.RiderTemplates)
	legacy := make(map[string]*string)

	for rows.Next() {
		var rt models.RiderTemplates
		var legacyEncoding *string
		if err := rows.Scan(&rt.RiderID, &rt.FullName, &rt.Balance, &legacyEncoding); err != nil {
			return nil, fmt.Errorf("failed to scan rider: %w", err)
		}
		order = append(order, rt.RiderID)
		byRider[rt.RiderID] = &rt
		legacy[rt.RiderID] = legacyEncoding
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate riders: %w", err)
	}

	recRows, err := r.db.QueryContext(ctx,
		`SELECT id, rider_id, angle, encoding, schema_version, face_width, face_height, captured_at
		 FROM embedding_records WHERE retired_at IS NULL
		 ORDER BY rider_id, captured_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var rec models.EmbeddingRecord
		if err := recRows.Scan(&rec.ID, &rec.RiderID, &rec.Angle, &rec.Encoding,
			&rec.SchemaVersion, &rec.FaceWidth, &rec.FaceHeight, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding record: %w", err)
		}
		if rt, ok := byRider[rec.RiderID]; ok {
			rt.Records = append(rt.Records, rec)
		}
	}
	if err := recRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embedding records: %w", err)
	}

	var result []models.RiderTemplates
	for _, id := range order {
		rt := byRider[id]
		if len(rt.Records) == 0 {
			enc := legacy[id]
			if enc == nil || *enc == "" {
				continue
			}
			// Riders enrolled before multi-angle capture carry only the
			// legacy single embedding.
			rt.Records = append(rt.Records, models.EmbeddingRecord{
				ID:            id + "-legacy",
				RiderID:       id,
				Angle:         "legacy",
				Encoding:      *enc,
				SchemaVersion: models.EmbeddingSchemaVersion,
			})
		}
		result = append(result, *rt)
	}
	return result, nil
}
