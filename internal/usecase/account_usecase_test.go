package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/usecase"
	"github.com/smartbank/ledger/internal/usecase/mocks"
)

func newAccountUseCase(accRepo *mocks.MockAccountRepository, outboxRepo *mocks.MockOutboxRepository, auditRepo *mocks.MockAuditRepository) *usecase.AccountUseCase {
	return usecase.NewAccountUseCase(
		mocks.NewMockTransactionManager(), accRepo, outboxRepo, auditRepo,
		mocks.NewMockIDGenerator(), time.Second,
	)
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	t.Run("creates account with seed balance", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		outboxRepo := mocks.NewMockOutboxRepository()
		auditRepo := mocks.NewMockAuditRepository()
		uc := newAccountUseCase(accRepo, outboxRepo, auditRepo)

		account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			Name:        "Checking",
			SeedBalance: decimal.RequireFromString("500.00"),
			Actor:       "admin",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if account.ID == 0 {
			t.Error("expected assigned account id")
		}
		if !strings.HasPrefix(account.AccountNumber, "ACC-") {
			t.Errorf("expected generated account number, got %s", account.AccountNumber)
		}
		if !account.Balance.Equal(decimal.RequireFromString("500.00")) {
			t.Errorf("expected opening balance 500.00, got %s", account.Balance)
		}
		if !account.SeedBalance.Equal(account.Balance) {
			t.Error("expected seed balance to match opening balance")
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeAccountCreated {
			t.Errorf("expected account.created event, got %v", events)
		}

		logs, _ := auditRepo.List(context.Background(), domain.AuditFilter{})
		if len(logs) != 1 || logs[0].Status != string(domain.AuditStatusSuccess) {
			t.Errorf("expected one success audit log, got %v", logs)
		}
	})

	t.Run("rejects negative seed balance", func(t *testing.T) {
		uc := newAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			Name:        "Checking",
			SeedBalance: decimal.RequireFromString("-1.00"),
		})
		if !errors.Is(err, domain.ErrNegativeSeedBalance) {
			t.Fatalf("expected ErrNegativeSeedBalance, got %v", err)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		uc := newAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{Name: "   "})
		if !errors.Is(err, domain.ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})

	t.Run("rejects sub-cent seed balance", func(t *testing.T) {
		uc := newAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			Name:        "Checking",
			SeedBalance: decimal.RequireFromString("10.005"),
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestAccountUseCase_UpdateAccount(t *testing.T) {
	t.Run("renames the account and audits before and after", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		auditRepo := mocks.NewMockAuditRepository()
		accRepo.Seed(&domain.Account{ID: 1, Name: "Old name", Balance: decimal.Zero})

		uc := newAccountUseCase(accRepo, mocks.NewMockOutboxRepository(), auditRepo)

		name := "New name"
		account, err := uc.UpdateAccount(context.Background(), 1, usecase.UpdateAccountInput{Name: &name})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Name != "New name" {
			t.Errorf("expected renamed account, got %s", account.Name)
		}

		logs, _ := auditRepo.List(context.Background(), domain.AuditFilter{})
		if len(logs) != 1 {
			t.Fatalf("expected one audit log, got %d", len(logs))
		}
		if logs[0].BeforeState == nil || logs[0].AfterState == nil {
			t.Error("expected before and after state in audit log")
		}
	})

	t.Run("no updatable fields", func(t *testing.T) {
		uc := newAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		_, err := uc.UpdateAccount(context.Background(), 1, usecase.UpdateAccountInput{})
		if !errors.Is(err, domain.ErrNoUpdatableFieldsGiven) {
			t.Fatalf("expected ErrNoUpdatableFieldsGiven, got %v", err)
		}
	})

	t.Run("closed account cannot be updated", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		now := time.Now().UTC()
		accRepo.Seed(&domain.Account{ID: 1, Name: "Closed", Balance: decimal.Zero, ClosedAt: &now})

		uc := newAccountUseCase(accRepo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		name := "New name"
		_, err := uc.UpdateAccount(context.Background(), 1, usecase.UpdateAccountInput{Name: &name})
		if !errors.Is(err, domain.ErrAccountClosed) {
			t.Fatalf("expected ErrAccountClosed, got %v", err)
		}
	})
}

func TestAccountUseCase_CloseAccount(t *testing.T) {
	t.Run("closes an empty account", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		outboxRepo := mocks.NewMockOutboxRepository()
		accRepo.Seed(&domain.Account{ID: 1, Name: "Empty", Balance: decimal.Zero})

		uc := newAccountUseCase(accRepo, outboxRepo, mocks.NewMockAuditRepository())

		if err := uc.CloseAccount(context.Background(), usecase.CloseAccountInput{AccountID: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		account, _ := accRepo.GetByID(context.Background(), 1)
		if !account.Closed() {
			t.Error("expected account to be closed")
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeAccountClosed {
			t.Errorf("expected account.closed event, got %v", events)
		}
	})

	t.Run("refuses to close an account holding funds", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		accRepo.Seed(&domain.Account{ID: 1, Name: "Funded", Balance: decimal.RequireFromString("10.00")})

		uc := newAccountUseCase(accRepo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		err := uc.CloseAccount(context.Background(), usecase.CloseAccountInput{AccountID: 1})
		if !errors.Is(err, domain.ErrAccountNotEmpty) {
			t.Fatalf("expected ErrAccountNotEmpty, got %v", err)
		}

		account, _ := accRepo.GetByID(context.Background(), 1)
		if account.Closed() {
			t.Error("expected account to stay open")
		}
	})

	t.Run("closing twice fails", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		now := time.Now().UTC()
		accRepo.Seed(&domain.Account{ID: 1, Name: "Closed", Balance: decimal.Zero, ClosedAt: &now})

		uc := newAccountUseCase(accRepo, mocks.NewMockOutboxRepository(), mocks.NewMockAuditRepository())

		err := uc.CloseAccount(context.Background(), usecase.CloseAccountInput{AccountID: 1})
		if !errors.Is(err, domain.ErrAccountClosed) {
			t.Fatalf("expected ErrAccountClosed, got %v", err)
		}
	})
}
