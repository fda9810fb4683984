package settlementservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/pkg/config"
	"github.com/campustransit/farebeacon/pkg/logger"
)

// fakeRiderStore is an in-memory IRiderRepository covering the settlement
// paths: balance reads and the guarded deduction.
type fakeRiderStore struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

func (f *fakeRiderStore) Create(ctx context.Context, rider *models.Rider) error { return nil }

func (f *fakeRiderStore) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[id]
	if !ok {
		return nil, models.ErrRiderNotFound
	}
	return &models.Rider{ID: id, Balance: balance}, nil
}

func (f *fakeRiderStore) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[id] = f.balances[id].Add(amount)
	return f.balances[id], nil
}

func (f *fakeRiderStore) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[id]
	if !ok {
		return decimal.Zero, false, models.ErrRiderNotFound
	}
	if balance.LessThan(amount) {
		return balance, false, nil
	}
	f.balances[id] = balance.Sub(amount)
	return f.balances[id], true, nil
}

func (f *fakeRiderStore) AppendEmbedding(ctx context.Context, record *models.EmbeddingRecord) error {
	return nil
}
func (f *fakeRiderStore) RetireEmbedding(ctx context.Context, riderID, recordID string) error {
	return nil
}
func (f *fakeRiderStore) CountActiveEmbeddings(ctx context.Context, riderID string) (int, error) {
	return 0, nil
}
func (f *fakeRiderStore) AllTemplates(ctx context.Context) ([]models.RiderTemplates, error) {
	return nil, nil
}

// fakeTransactionStore is an append-only in-memory ITransactionRepository.
type fakeTransactionStore struct {
	mu           sync.Mutex
	transactions []models.Transaction
}

func (f *fakeTransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeTransactionStore) GetLatestByRider(ctx context.Context, riderID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Transaction
	for i := range f.transactions {
		tx := f.transactions[i]
		if tx.RiderID != riderID {
			continue
		}
		if latest == nil || tx.Timestamp.After(latest.Timestamp) {
			latest = &tx
		}
	}
	return latest, nil
}

func (f *fakeTransactionStore) ListByRider(ctx context.Context, riderID string, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Transaction
	for _, tx := range f.transactions {
		if tx.RiderID == riderID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (f *fakeTransactionStore) count(riderID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tx := range f.transactions {
		if tx.RiderID == riderID {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, balances map[string]decimal.Decimal) (*settlementService, *fakeRiderStore, *fakeTransactionStore) {
	t.Helper()

	riders := &fakeRiderStore{balances: balances}
	transactions := &fakeTransactionStore{}

	cfg := config.RecognitionConfig{
		FareAmount:      "20",
		DuplicateWindow: 30 * time.Minute,
	}
	svc, err := New(riders, transactions, nil, cfg, logger.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc.(*settlementService), riders, transactions
}

func TestSettleScenario(t *testing.T) {
	// Rider with balance 50, fare 20: approve, suppress, approve again
	// after the window, per the boarding scenario.
	svc, riders, transactions := newTestService(t, map[string]decimal.Decimal{
		"r1": decimal.NewFromInt(50),
	})

	base := time.Now()
	svc.now = func() time.Time { return base }

	ctx := context.Background()

	first, err := svc.Settle(ctx, "r1", "Asha")
	if err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	if first.Outcome != models.OutcomeApproved {
		t.Fatalf("first outcome = %s, want approved", first.Outcome)
	}
	if !first.Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("balance after first scan = %s, want 30", first.Balance)
	}
	if first.Transaction == nil || first.Transaction.Status != models.StatusApproved {
		t.Errorf("expected an Approved transaction, got %+v", first.Transaction)
	}

	// Second scan five minutes later is suppressed, reporting the prior
	// timestamp and leaving the balance untouched.
	svc.now = func() time.Time { return base.Add(5 * time.Minute) }

	second, err := svc.Settle(ctx, "r1", "Asha")
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if second.Outcome != models.OutcomeDuplicate {
		t.Fatalf("second outcome = %s, want duplicate", second.Outcome)
	}
	if second.Transaction != nil {
		t.Error("suppressed settlement must not create a transaction")
	}
	if second.PriorTimestamp == nil || !second.PriorTimestamp.Equal(base) {
		t.Errorf("prior timestamp = %v, want %v", second.PriorTimestamp, base)
	}
	if !second.Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("balance after suppression = %s, want 30", second.Balance)
	}
	if got := transactions.count("r1"); got != 1 {
		t.Errorf("transactions after suppression = %d, want 1", got)
	}

	// A scan past the window approves again.
	svc.now = func() time.Time { return base.Add(31 * time.Minute) }

	third, err := svc.Settle(ctx, "r1", "Asha")
	if err != nil {
		t.Fatalf("third settle failed: %v", err)
	}
	if third.Outcome != models.OutcomeApproved {
		t.Fatalf("third outcome = %s, want approved", third.Outcome)
	}
	if !third.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance after third scan = %s, want 10", third.Balance)
	}
	if got := transactions.count("r1"); got != 2 {
		t.Errorf("transactions after third scan = %d, want 2", got)
	}

	if !riders.balances["r1"].Equal(decimal.NewFromInt(10)) {
		t.Errorf("stored balance = %s, want 10", riders.balances["r1"])
	}
}

func TestSettleInsufficientFunds(t *testing.T) {
	svc, _, transactions := newTestService(t, map[string]decimal.Decimal{
		"r1": decimal.NewFromInt(5),
	})

	result, err := svc.Settle(context.Background(), "r1", "Asha")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Outcome != models.OutcomeDeclined {
		t.Fatalf("outcome = %s, want declined", result.Outcome)
	}
	if !result.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance = %s, want unchanged 5", result.Balance)
	}
	if result.Transaction == nil || result.Transaction.Status != models.StatusDeclined {
		t.Errorf("expected a Declined transaction on the audit trail, got %+v", result.Transaction)
	}
	if got := transactions.count("r1"); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}
}

func TestDeclinedSettlementStillSuppressesRetries(t *testing.T) {
	svc, _, transactions := newTestService(t, map[string]decimal.Decimal{
		"r1": decimal.NewFromInt(5),
	})

	base := time.Now()
	svc.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := svc.Settle(ctx, "r1", "Asha"); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }

	result, err := svc.Settle(ctx, "r1", "Asha")
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if result.Outcome != models.OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate after a Declined charge", result.Outcome)
	}
	if got := transactions.count("r1"); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}
}

func TestSettleExactBalanceApproves(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]decimal.Decimal{
		"r1": decimal.NewFromInt(20),
	})

	result, err := svc.Settle(context.Background(), "r1", "Asha")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Outcome != models.OutcomeApproved {
		t.Fatalf("outcome = %s, want approved when balance equals fare", result.Outcome)
	}
	if !result.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", result.Balance)
	}
}

func TestConcurrentSettlementsChargeOnce(t *testing.T) {
	svc, riders, transactions := newTestService(t, map[string]decimal.Decimal{
		"r1": decimal.NewFromInt(20),
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Settle(context.Background(), "r1", "Asha"); err != nil {
				t.Errorf("settle failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Exactly one scan wins; the rest land inside its duplicate window.
	if got := transactions.count("r1"); got != 1 {
		t.Errorf("transactions = %d, want exactly 1", got)
	}
	if !riders.balances["r1"].IsZero() {
		t.Errorf("balance = %s, want 0 after a single charge", riders.balances["r1"])
	}
}

func TestSettleRiderNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]decimal.Decimal{})

	if _, err := svc.Settle(context.Background(), "ghost", "Ghost"); err == nil {
		t.Fatal("expected an error for an unknown rider")
	}
}
