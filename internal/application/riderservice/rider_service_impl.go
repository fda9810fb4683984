package riderservice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/repositories/riderrepo"
	"github.com/campustransit/farebeacon/internal/repositories/transactionrepo"
	"github.com/campustransit/farebeacon/pkg/config"
)

type riderService struct {
	riderRepo       riderrepo.IRiderRepository
	transactionRepo transactionrepo.ITransactionRepository
	cfg             config.RecognitionConfig
	logger          zerolog.Logger
}

func New(
	riderRepo riderrepo.IRiderRepository,
	transactionRepo transactionrepo.ITransactionRepository,
	cfg config.RecognitionConfig,
	logger zerolog.Logger,
) IRiderService {
	return &riderService{
		riderRepo:       riderRepo,
		transactionRepo: transactionRepo,
		cfg:             cfg,
		logger:          logger,
	}
}

func (s *riderService) Create(ctx context.Context, fullName string, initialBalance decimal.Decimal) (*models.Rider, error) {
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance must not be negative")
	}

	rider := &models.Rider{
		FullName: fullName,
		Balance:  initialBalance,
	}
	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("rider_id", rider.ID).
		Int64("rider_number", rider.RiderNumber).
		Msg("Rider provisioned")
	return rider, nil
}

func (s *riderService) Get(ctx context.Context, id string) (*models.RiderProfile, error) {
	rider, err := s.riderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.riderRepo.CountActiveEmbeddings(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.RiderProfile{
		Rider:         *rider,
		AnglesCount:   count,
		TotalRequired: s.cfg.RequiredAngles,
		Complete:      count >= s.cfg.RequiredAngles,
	}, nil
}

func (s *riderService) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("top-up amount must be positive")
	}

	// Existence check first so a bad ID surfaces as not-found rather than
	// a silent zero-row update.
	if _, err := s.riderRepo.GetByID(ctx, id); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.riderRepo.Credit(ctx, id, amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info().
		Str("rider_id", id).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("Rider balance credited")
	return balance, nil
}

func (s *riderService) Transactions(ctx context.Context, id string, limit int) ([]models.Transaction, error) {
	if _, err := s.riderRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.transactionRepo.ListByRider(ctx, id, limit)
}
