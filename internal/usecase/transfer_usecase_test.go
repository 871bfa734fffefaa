package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/usecase"
	"github.com/smartbank/ledger/internal/usecase/mocks"
)

func seedAccount(repo *mocks.MockAccountRepository, id int64, balance string) *domain.Account {
	account := &domain.Account{
		ID:            id,
		AccountNumber: "ACC-" + decimal.NewFromInt(id).String(),
		Name:          "test account",
		Balance:       decimal.RequireFromString(balance),
		SeedBalance:   decimal.RequireFromString(balance),
	}
	repo.Seed(account)
	return account
}

func newTransferUseCase(accRepo *mocks.MockAccountRepository, entryRepo *mocks.MockEntryRepository, outboxRepo *mocks.MockOutboxRepository, txMgr *mocks.MockTransactionManager) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(txMgr, accRepo, entryRepo, outboxRepo, mocks.NewMockIDGenerator(), time.Second)
}

func TestTransferUseCase_CreateTransfer(t *testing.T) {
	t.Run("happy path moves funds and journals the entry", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		outboxRepo := mocks.NewMockOutboxRepository()
		seedAccount(accRepo, 1, "500.00")
		seedAccount(accRepo, 2, "100.00")

		uc := newTransferUseCase(accRepo, entryRepo, outboxRepo, mocks.NewMockTransactionManager())

		result, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.RequireFromString("150.00"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewSourceBalance.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("expected new source balance 350.00, got %s", result.NewSourceBalance)
		}

		source, _ := accRepo.GetByID(context.Background(), 1)
		dest, _ := accRepo.GetByID(context.Background(), 2)
		if !source.Balance.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("expected source balance 350.00, got %s", source.Balance)
		}
		if !dest.Balance.Equal(decimal.RequireFromString("250.00")) {
			t.Errorf("expected destination balance 250.00, got %s", dest.Balance)
		}

		if result.Entry.ID == 0 {
			t.Error("expected entry to receive a sequence id")
		}
		if result.Entry.Kind != domain.EntryKindTransfer {
			t.Errorf("expected transfer entry, got %s", result.Entry.Kind)
		}
		if result.Entry.SourceAccountID == nil || *result.Entry.SourceAccountID != 1 {
			t.Error("expected entry source account 1")
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeTransferCommitted {
			t.Errorf("expected one transfer.committed event, got %v", events)
		}
	})

	t.Run("insufficient funds leaves balances untouched", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		seedAccount(accRepo, 1, "100.00")
		seedAccount(accRepo, 2, "0.00")

		uc := newTransferUseCase(accRepo, mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.RequireFromString("100.01"),
		})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		source, _ := accRepo.GetByID(context.Background(), 1)
		if !source.Balance.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("expected source balance unchanged, got %s", source.Balance)
		}
	})

	t.Run("self transfer rejected before any store access", func(t *testing.T) {
		txMgr := mocks.NewMockTransactionManager()
		began := false
		txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			began = true
			return &mocks.MockTransaction{}, nil
		}

		uc := newTransferUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), txMgr)

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 1,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrSelfTransfer) {
			t.Fatalf("expected ErrSelfTransfer, got %v", err)
		}
		if began {
			t.Error("expected no transaction for a validation failure")
		}
	})

	t.Run("amount validation", func(t *testing.T) {
		uc := newTransferUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		for _, amount := range []string{"0", "-10", "1.005"} {
			_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
				SourceAccountID:      1,
				DestinationAccountID: 2,
				Amount:               decimal.RequireFromString(amount),
			})
			if !errors.Is(err, domain.ErrInvalidAmount) {
				t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
	})

	t.Run("missing accounts map to source and destination errors", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		seedAccount(accRepo, 2, "50.00")

		uc := newTransferUseCase(accRepo, mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}

		_, err = uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      2,
			DestinationAccountID: 3,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrDestinationNotFound) {
			t.Errorf("expected ErrDestinationNotFound, got %v", err)
		}
	})

	t.Run("closed source account is treated as missing", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		closed := seedAccount(accRepo, 1, "500.00")
		now := time.Now().UTC()
		closed.ClosedAt = &now
		seedAccount(accRepo, 2, "0.00")

		uc := newTransferUseCase(accRepo, mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound for closed account, got %v", err)
		}
	})

	t.Run("locks are requested in ascending id order", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		seedAccount(accRepo, 1, "100.00")
		seedAccount(accRepo, 2, "100.00")

		var requested []int64
		base := mocks.NewMockAccountRepository()
		seedAccount(base, 1, "100.00")
		seedAccount(base, 2, "100.00")
		accRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
			requested = append(requested, ids...)
			return base.GetByIDsForUpdate(ctx, tx, ids)
		}

		uc := newTransferUseCase(accRepo, mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		// Transfer in the "descending" direction still locks 1 before 2.
		if _, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      2,
			DestinationAccountID: 1,
			Amount:               decimal.NewFromInt(10),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(requested) != 2 || requested[0] != 1 || requested[1] != 2 {
			t.Errorf("expected lock order [1 2], got %v", requested)
		}
	})

	t.Run("lock wait deadline maps to ErrLockTimeout", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		accRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		uc := usecase.NewTransferUseCase(
			mocks.NewMockTransactionManager(), accRepo,
			mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(),
			mocks.NewMockIDGenerator(), 10*time.Millisecond,
		)

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("append failure rolls the transaction back", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		seedAccount(accRepo, 1, "500.00")
		seedAccount(accRepo, 2, "100.00")

		entryRepo := mocks.NewMockEntryRepository()
		entryRepo.AppendFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) (*domain.Entry, error) {
			return nil, errors.New("disk full")
		}

		var committed, rolledBack bool
		txMgr := mocks.NewMockTransactionManager()
		txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			return &mocks.MockTransaction{
				CommitFunc:   func(ctx context.Context) error { committed = true; return nil },
				RollbackFunc: func(ctx context.Context) error { rolledBack = true; return nil },
			}, nil
		}

		uc := newTransferUseCase(accRepo, entryRepo, mocks.NewMockOutboxRepository(), txMgr)

		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.NewFromInt(50),
		})
		if !errors.Is(err, domain.ErrStorageFailure) {
			t.Fatalf("expected ErrStorageFailure, got %v", err)
		}
		if committed {
			t.Error("expected no commit after append failure")
		}
		if !rolledBack {
			t.Error("expected rollback after append failure")
		}
	})
}

func TestTransferUseCase_Idempotency(t *testing.T) {
	t.Run("replay returns the original entry without a second movement", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		seedAccount(accRepo, 1, "500.00")
		seedAccount(accRepo, 2, "100.00")

		uc := newTransferUseCase(accRepo, entryRepo, mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		key := "transfer-req-1"
		input := usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.RequireFromString("150.00"),
			IdempotencyKey:       &key,
		}

		first, err := uc.CreateTransfer(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second, err := uc.CreateTransfer(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error on replay: %v", err)
		}

		if second.Entry.ID != first.Entry.ID {
			t.Errorf("expected replay to return entry %d, got %d", first.Entry.ID, second.Entry.ID)
		}

		source, _ := accRepo.GetByID(context.Background(), 1)
		if !source.Balance.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("expected single debit, source balance %s", source.Balance)
		}
	})

	t.Run("losing a duplicate key race returns the winner's entry", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		seedAccount(accRepo, 1, "500.00")
		seedAccount(accRepo, 2, "100.00")

		key := "transfer-req-2"
		winner := &domain.Entry{
			ID:                   7,
			DestinationAccountID: 2,
			Amount:               decimal.RequireFromString("150.00"),
			Kind:                 domain.EntryKindTransfer,
			IdempotencyKey:       &key,
		}
		sourceID := int64(1)
		winner.SourceAccountID = &sourceID

		entryRepo := mocks.NewMockEntryRepository()
		lookups := 0
		entryRepo.GetByIdempotencyKeyFunc = func(ctx context.Context, k string) (*domain.Entry, error) {
			lookups++
			// The fast path sees nothing; by the time the append
			// collides, the concurrent winner is visible.
			if lookups == 1 {
				return nil, domain.ErrEntryNotFound
			}
			return winner, nil
		}
		entryRepo.AppendFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) (*domain.Entry, error) {
			return nil, domain.ErrDuplicateIdempotencyKey
		}

		uc := newTransferUseCase(accRepo, entryRepo, mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		result, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.RequireFromString("150.00"),
			IdempotencyKey:       &key,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Entry.ID != 7 {
			t.Errorf("expected winner entry 7, got %d", result.Entry.ID)
		}
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		uc := newTransferUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		empty := ""
		_, err := uc.CreateTransfer(context.Background(), usecase.CreateTransferInput{
			SourceAccountID:      1,
			DestinationAccountID: 2,
			Amount:               decimal.NewFromInt(10),
			IdempotencyKey:       &empty,
		})
		if !errors.Is(err, domain.ErrInvalidIdempotencyKey) {
			t.Fatalf("expected ErrInvalidIdempotencyKey, got %v", err)
		}
	})
}

func TestTransferUseCase_Deposit(t *testing.T) {
	t.Run("credits the destination and journals a deposit entry", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		outboxRepo := mocks.NewMockOutboxRepository()
		seedAccount(accRepo, 1, "100.00")

		uc := newTransferUseCase(accRepo, mocks.NewMockEntryRepository(), outboxRepo, mocks.NewMockTransactionManager())

		result, err := uc.Deposit(context.Background(), usecase.CreateDepositInput{
			DestinationAccountID: 1,
			Amount:               decimal.RequireFromString("25.50"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewSourceBalance.Equal(decimal.RequireFromString("125.50")) {
			t.Errorf("expected balance 125.50, got %s", result.NewSourceBalance)
		}
		if result.Entry.Kind != domain.EntryKindDeposit {
			t.Errorf("expected deposit entry, got %s", result.Entry.Kind)
		}
		if result.Entry.SourceAccountID != nil {
			t.Error("expected deposit entry without a source account")
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeDepositCommitted {
			t.Errorf("expected one deposit.committed event, got %v", events)
		}
	})

	t.Run("unknown destination", func(t *testing.T) {
		uc := newTransferUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockTransactionManager())

		_, err := uc.Deposit(context.Background(), usecase.CreateDepositInput{
			DestinationAccountID: 99,
			Amount:               decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrDestinationNotFound) {
			t.Fatalf("expected ErrDestinationNotFound, got %v", err)
		}
	})
}
