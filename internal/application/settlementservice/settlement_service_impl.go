package settlementservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/repositories/riderrepo"
	"github.com/campustransit/farebeacon/internal/repositories/transactionrepo"
	"github.com/campustransit/farebeacon/pkg/config"
)

type settlementService struct {
	riderRepo       riderrepo.IRiderRepository
	transactionRepo transactionrepo.ITransactionRepository
	publisher       interfaces.EventPublisher
	fare            decimal.Decimal
	window          time.Duration
	logger          zerolog.Logger
	now             func() time.Time

	muMap map[string]*sync.Mutex // per-rider settlement locks
	mapMu sync.Mutex             // protects muMap itself
}

// New builds the settlement service. Publisher may be nil when event
// publishing is disabled.
func New(
	riderRepo riderrepo.IRiderRepository,
	transactionRepo transactionrepo.ITransactionRepository,
	publisher interfaces.EventPublisher,
	cfg config.RecognitionConfig,
	logger zerolog.Logger,
) (ISettlementService, error) {
	fare, err := decimal.NewFromString(cfg.FareAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid fare amount %q: %w", cfg.FareAmount, err)
	}
	if fare.IsNegative() {
		return nil, fmt.Errorf("fare amount %s must not be negative", fare)
	}

	return &settlementService{
		riderRepo:       riderRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
		fare:            fare,
		window:          cfg.DuplicateWindow,
		logger:          logger,
		now:             time.Now,
		muMap:           make(map[string]*sync.Mutex),
	}, nil
}

func (s *settlementService) riderLock(riderID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[riderID]; !exists {
		s.muMap[riderID] = &sync.Mutex{}
	}
	return s.muMap[riderID]
}

func (s *settlementService) Settle(ctx context.Context, riderID, riderName string) (*models.SettlementResult, error) {
	// The rider lock makes window-check, balance decision and transaction
	// insert one unit; the balance deduction itself is additionally a
	// guarded compare-and-swap at the store.
	mu := s.riderLock(riderID)
	mu.Lock()
	defer mu.Unlock()

	last, err := s.transactionRepo.GetLatestByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if last != nil && now.Sub(last.Timestamp) < s.window {
		// Suppressed: no new transaction, regardless of the prior status.
		rider, err := s.riderRepo.GetByID(ctx, riderID)
		if err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("rider_id", riderID).
			Time("prior_timestamp", last.Timestamp).
			Msg("Settlement suppressed inside duplicate window")

		prior := last.Timestamp
		return &models.SettlementResult{
			Outcome:        models.OutcomeDuplicate,
			Balance:        rider.Balance,
			PriorTimestamp: &prior,
		}, nil
	}

	balance, deducted, err := s.riderRepo.DeductBalance(ctx, riderID, s.fare)
	if err != nil {
		return nil, err
	}

	status := models.StatusDeclined
	if deducted {
		status = models.StatusApproved
	}

	tx := &models.Transaction{
		RiderID:   riderID,
		Amount:    s.fare,
		Status:    status,
		Timestamp: now,
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("rider_id", riderID).
		Str("transaction_id", tx.ID).
		Str("status", string(status)).
		Str("balance", balance.String()).
		Msg("Fare settled")

	s.publish(ctx, tx, riderName, balance)

	return &models.SettlementResult{
		Outcome:     outcomeFor(status),
		Transaction: tx,
		Balance:     balance,
	}, nil
}

func (s *settlementService) publish(ctx context.Context, tx *models.Transaction, riderName string, balance decimal.Decimal) {
	if s.publisher == nil {
		return
	}

	event := models.FareSettled{
		TransactionID: tx.ID,
		RiderID:       tx.RiderID,
		RiderName:     riderName,
		Amount:        tx.Amount,
		Status:        tx.Status,
		Balance:       balance,
		OccurredAt:    tx.Timestamp,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Publishing is best-effort; the settled transaction stands.
		s.logger.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to publish settlement event")
	}
}

func outcomeFor(status models.TransactionStatus) models.SettlementOutcome {
	if status == models.StatusApproved {
		return models.OutcomeApproved
	}
	return models.OutcomeDeclined
}
