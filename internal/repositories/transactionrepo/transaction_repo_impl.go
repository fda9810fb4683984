package transactionrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/infrastructure/database"
)

type transactionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ITransactionRepository {
	return &transactionRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, rider_id, amount, status, created_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.ID, tx.RiderID, tx.Amount, string(tx.Status), tx.Timestamp,
		pqtype.NullRawMessage{RawMessage: tx.Metadata, Valid: tx.Metadata != nil},
	)
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", tx.RiderID).Msg("Failed to create transaction")
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetLatestByRider(ctx context.Context, riderID string) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, rider_id, amount, status, created_at, metadata
		 FROM transactions WHERE rider_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		riderID,
	)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("rider_id", riderID).Msg("Failed to get latest transaction")
		return nil, fmt.Errorf("failed to get latest transaction: %w", err)
	}
	return tx, nil
}

func (r *transactionRepository) ListByRider(ctx context.Context, riderID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rider_id, amount, status, created_at, metadata
		 FROM transactions WHERE rider_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		riderID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var status string
	var metadata pqtype.NullRawMessage

	if err := row.Scan(&tx.ID, &tx.RiderID, &tx.Amount, &status, &tx.Timestamp, &metadata); err != nil {
		return nil, err
	}
	tx.Status = models.TransactionStatus(status)
	if metadata.Valid {
		tx.Metadata = metadata.RawMessage
	}
	return &tx, nil
}
