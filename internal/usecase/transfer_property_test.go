package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/adapter/repository/memory"
	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/usecase"
	"github.com/smartbank/ledger/internal/usecase/mocks"
)

func newMemoryEngine(store *memory.Store, lockWait time.Duration) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(
		store, store.Accounts(), store.Entries(), store.Outbox(),
		mocks.NewMockIDGenerator(), lockWait,
	)
}

var seedCounter atomic.Int64

func seedStoreAccount(t *testing.T, store *memory.Store, balance string) int64 {
	t.Helper()
	account := &domain.Account{
		AccountNumber: fmt.Sprintf("ACC-%d", seedCounter.Add(1)),
		Name:          "property test account",
		Balance:       decimal.RequireFromString(balance),
		SeedBalance:   decimal.RequireFromString(balance),
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func TestTransferEngine_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	store := memory.NewStore()
	a := seedStoreAccount(t, store, "1000.00")
	b := seedStoreAccount(t, store, "1000.00")

	uc := newMemoryEngine(store, 2*time.Second)

	const rounds = 100
	var wg sync.WaitGroup
	errCh := make(chan error, 2*rounds)

	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
				SourceAccountID:      a,
				DestinationAccountID: b,
				Amount:               decimal.RequireFromString("1.00"),
			})
			errCh <- err
		}()
		go func() {
			defer wg.Done()
			_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
				SourceAccountID:      b,
				DestinationAccountID: a,
				Amount:               decimal.RequireFromString("1.00"),
			})
			errCh <- err
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	// Equal traffic both ways leaves both balances where they started.
	accA, _ := store.GetAccountByID(context.Background(), a)
	accB, _ := store.GetAccountByID(context.Background(), b)
	if !accA.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected balance 1000.00 for a, got %s", accA.Balance)
	}
	if !accB.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected balance 1000.00 for b, got %s", accB.Balance)
	}
}

func TestTransferEngine_ConcurrentDrainAllowsExactlyOneDebit(t *testing.T) {
	store := memory.NewStore()
	source := seedStoreAccount(t, store, "100.00")
	dest := seedStoreAccount(t, store, "0.00")

	uc := newMemoryEngine(store, 2*time.Second)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
				SourceAccountID:      source,
				DestinationAccountID: dest,
				Amount:               decimal.RequireFromString("100.00"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 || insufficient != 1 {
		t.Errorf("expected exactly one success and one insufficient funds, got %d/%d", succeeded, insufficient)
	}

	sourceAcc, _ := store.GetAccountByID(context.Background(), source)
	destAcc, _ := store.GetAccountByID(context.Background(), dest)
	if !sourceAcc.Balance.IsZero() {
		t.Errorf("expected drained source, got %s", sourceAcc.Balance)
	}
	if !destAcc.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected destination 100.00, got %s", destAcc.Balance)
	}
}

func TestTransferEngine_ConservationUnderConcurrency(t *testing.T) {
	store := memory.NewStore()
	var ids []int64
	for i := 0; i < 4; i++ {
		ids = append(ids, seedStoreAccount(t, store, "250.00"))
	}
	totalBefore := store.TotalBalance()

	uc := newMemoryEngine(store, 2*time.Second)

	const workers = 8
	const transfersPerWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < transfersPerWorker; i++ {
				from := ids[rng.Intn(len(ids))]
				to := ids[rng.Intn(len(ids))]
				if from == to {
					continue
				}
				amount := decimal.NewFromInt(int64(rng.Intn(20) + 1))
				_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
					SourceAccountID:      from,
					DestinationAccountID: to,
					Amount:               amount,
				})
				if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	if total := store.TotalBalance(); !total.Equal(totalBefore) {
		t.Errorf("conservation violated: before %s, after %s", totalBefore, total)
	}

	// Every account's stored balance must replay from its journal.
	recon := usecase.NewReconciliationUseCase(store.Accounts(), store.Entries(), store.Ledger())
	for _, id := range ids {
		result, err := recon.ReconcileAccount(context.Background(), id)
		if err != nil {
			t.Fatalf("reconcile %d: %v", id, err)
		}
		if !result.IsReconciled {
			t.Errorf("account %d drifted by %s", id, result.Difference)
		}
	}

	if err := recon.CheckLedgerConsistency(context.Background()); err != nil {
		t.Errorf("ledger inconsistent: %v", err)
	}
}

func TestTransferEngine_AppendFailureLeavesNoPartialState(t *testing.T) {
	store := memory.NewStore()
	source := seedStoreAccount(t, store, "500.00")
	dest := seedStoreAccount(t, store, "100.00")

	store.AppendHook = func(entry *domain.Entry) error {
		return errors.New("simulated append failure")
	}

	uc := newMemoryEngine(store, 2*time.Second)

	_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
		SourceAccountID:      source,
		DestinationAccountID: dest,
		Amount:               decimal.RequireFromString("150.00"),
	})
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}

	sourceAcc, _ := store.GetAccountByID(context.Background(), source)
	destAcc, _ := store.GetAccountByID(context.Background(), dest)
	if !sourceAcc.Balance.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("expected source balance restored to 500.00, got %s", sourceAcc.Balance)
	}
	if !destAcc.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected destination balance restored to 100.00, got %s", destAcc.Balance)
	}
	if store.EntryCount() != 0 {
		t.Errorf("expected empty journal, got %d entries", store.EntryCount())
	}

	// Once the failure clears, the same transfer goes through.
	store.AppendHook = nil
	result, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
		SourceAccountID:      source,
		DestinationAccountID: dest,
		Amount:               decimal.RequireFromString("150.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if !result.NewSourceBalance.Equal(decimal.RequireFromString("350.00")) {
		t.Errorf("expected balance 350.00 after retry, got %s", result.NewSourceBalance)
	}
}

func TestTransferEngine_BoundedLockWait(t *testing.T) {
	store := memory.NewStore()
	source := seedStoreAccount(t, store, "500.00")
	dest := seedStoreAccount(t, store, "100.00")

	// Hold the source lock in a foreign transaction for the duration of
	// the test.
	holder, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := store.LockAccounts(context.Background(), holder, []int64{source}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	uc := newMemoryEngine(store, 50*time.Millisecond)

	start := time.Now()
	_, err = uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
		SourceAccountID:      source,
		DestinationAccountID: dest,
		Amount:               decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lock wait was not bounded: %s", elapsed)
	}

	holder.Rollback(context.Background())

	// With the lock released, the transfer succeeds.
	if _, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
		SourceAccountID:      source,
		DestinationAccountID: dest,
		Amount:               decimal.RequireFromString("10.00"),
	}); err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
}
