package riderservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/pkg/config"
	"github.com/campustransit/farebeacon/pkg/logger"
)

type fakeRiderStore struct {
	riders map[string]*models.Rider
	active map[string]int
}

func (f *fakeRiderStore) Create(ctx context.Context, rider *models.Rider) error {
	rider.ID = uuid.New().String()
	rider.RiderNumber = int64(len(f.riders) + 1)
	f.riders[rider.ID] = rider
	return nil
}

func (f *fakeRiderStore) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	rider, ok := f.riders[id]
	if !ok {
		return nil, models.ErrRiderNotFound
	}
	return rider, nil
}

func (f *fakeRiderStore) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	rider := f.riders[id]
	rider.Balance = rider.Balance.Add(amount)
	return rider.Balance, nil
}

func (f *fakeRiderStore) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

func (f *fakeRiderStore) AppendEmbedding(ctx context.Context, record *models.EmbeddingRecord) error {
	return nil
}
func (f *fakeRiderStore) RetireEmbedding(ctx context.Context, riderID, recordID string) error {
	return nil
}
func (f *fakeRiderStore) CountActiveEmbeddings(ctx context.Context, riderID string) (int, error) {
	return f.active[riderID], nil
}
func (f *fakeRiderStore) AllTemplates(ctx context.Context) ([]models.RiderTemplates, error) {
	return nil, nil
}

type fakeTransactionStore struct {
	transactions []models.Transaction
}

func (f *fakeTransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeTransactionStore) GetLatestByRider(ctx context.Context, riderID string) (*models.Transaction, error) {
	return nil, nil
}

func (f *fakeTransactionStore) ListByRider(ctx context.Context, riderID string, limit int) ([]models.Transaction, error) {
	var result []models.Transaction
	for _, tx := range f.transactions {
		if tx.RiderID == riderID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func newTestService() (IRiderService, *fakeRiderStore, *fakeTransactionStore) {
	riders := &fakeRiderStore{
		riders: map[string]*models.Rider{},
		active: map[string]int{},
	}
	transactions := &fakeTransactionStore{}
	cfg := config.RecognitionConfig{RequiredAngles: 5}
	return New(riders, transactions, cfg, logger.New()), riders, transactions
}

func TestCreateAndGet(t *testing.T) {
	svc, riders, _ := newTestService()

	ctx := context.Background()
	rider, err := svc.Create(ctx, "Asha Bekele", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rider.ID == "" || rider.RiderNumber == 0 {
		t.Errorf("rider not assigned identity: %+v", rider)
	}

	riders.active[rider.ID] = 3

	profile, err := svc.Get(ctx, rider.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if profile.Rider.FullName != "Asha Bekele" {
		t.Errorf("full name = %q", profile.Rider.FullName)
	}
	if profile.AnglesCount != 3 || profile.TotalRequired != 5 || profile.Complete {
		t.Errorf("progress = %d/%d complete=%v", profile.AnglesCount, profile.TotalRequired, profile.Complete)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", decimal.NewFromInt(10)); err == nil {
		t.Error("expected an error for a missing name")
	}
	if _, err := svc.Create(ctx, "Asha", decimal.NewFromInt(-1)); err == nil {
		t.Error("expected an error for a negative opening balance")
	}
}

func TestCredit(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rider, err := svc.Create(ctx, "Asha", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	balance, err := svc.Credit(ctx, rider.ID, decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance = %s, want 50", balance)
	}

	if _, err := svc.Credit(ctx, rider.ID, decimal.Zero); err == nil {
		t.Error("expected an error for a non-positive top-up")
	}
	if _, err := svc.Credit(ctx, "ghost", decimal.NewFromInt(5)); !errors.Is(err, models.ErrRiderNotFound) {
		t.Errorf("err = %v, want ErrRiderNotFound", err)
	}
}

func TestTransactions(t *testing.T) {
	svc, _, transactions := newTestService()
	ctx := context.Background()

	rider, err := svc.Create(ctx, "Asha", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	transactions.transactions = []models.Transaction{
		{ID: "t1", RiderID: rider.ID, Amount: decimal.NewFromInt(20), Status: models.StatusApproved, Timestamp: time.Now()},
		{ID: "t2", RiderID: "someone-else", Amount: decimal.NewFromInt(20), Status: models.StatusApproved, Timestamp: time.Now()},
	}

	list, err := svc.Transactions(ctx, rider.ID, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "t1" {
		t.Errorf("transactions = %+v", list)
	}

	if _, err := svc.Transactions(ctx, "ghost", 10); !errors.Is(err, models.ErrRiderNotFound) {
		t.Errorf("err = %v, want ErrRiderNotFound", err)
	}
}
