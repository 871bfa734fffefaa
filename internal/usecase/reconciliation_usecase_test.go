package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/usecase"
	"github.com/smartbank/ledger/internal/usecase/mocks"
)

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	seedAccount(accRepo, 1, "500.00")
	seedAccount(accRepo, 2, "100.00")

	// Move 150 from 1 to 2, adjusting balances the way the engine would.
	sourceID := int64(1)
	entryRepo.Append(context.Background(), nil, &domain.Entry{
		SourceAccountID:      &sourceID,
		DestinationAccountID: 2,
		Amount:               decimal.RequireFromString("150.00"),
		Kind:                 domain.EntryKindTransfer,
		CommittedAt:          time.Now().UTC(),
	})
	accRepo.ApplyBalanceDelta(context.Background(), nil, 1, decimal.RequireFromString("-150.00"), time.Now().UTC())
	accRepo.ApplyBalanceDelta(context.Background(), nil, 2, decimal.RequireFromString("150.00"), time.Now().UTC())

	uc := usecase.NewReconciliationUseCase(accRepo, entryRepo, mocks.NewMockLedgerRepository())

	t.Run("balanced account reconciles", func(t *testing.T) {
		result, err := uc.ReconcileAccount(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsReconciled {
			t.Errorf("expected reconciled account, difference %s", result.Difference)
		}
		if !result.CalculatedBalance.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("expected calculated balance 350.00, got %s", result.CalculatedBalance)
		}
	})

	t.Run("drifted balance is reported", func(t *testing.T) {
		// Corrupt the stored balance behind the journal's back.
		accRepo.ApplyBalanceDelta(context.Background(), nil, 2, decimal.RequireFromString("5.00"), time.Now().UTC())

		result, err := uc.ReconcileAccount(context.Background(), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsReconciled {
			t.Error("expected discrepancy")
		}
		if !result.Difference.Equal(decimal.RequireFromString("5.00")) {
			t.Errorf("expected difference 5.00, got %s", result.Difference)
		}
	})
}

func TestReconciliationUseCase_CheckLedgerConsistency(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewReconciliationUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), ledgerRepo)

	t.Run("consistent", func(t *testing.T) {
		ledgerRepo.CheckConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
			return decimal.RequireFromString("75.00"), decimal.RequireFromString("75.00"), nil
		}
		if err := uc.CheckLedgerConsistency(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("inconsistent", func(t *testing.T) {
		ledgerRepo.CheckConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
			return decimal.RequireFromString("80.00"), decimal.RequireFromString("75.00"), nil
		}
		if err := uc.CheckLedgerConsistency(context.Background()); err == nil {
			t.Error("expected inconsistency error")
		}
	})
}

func TestReconciliationUseCase_GenerateReconciliationReport(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	seedAccount(accRepo, 1, "500.00")
	seedAccount(accRepo, 2, "100.00")

	uc := usecase.NewReconciliationUseCase(accRepo, entryRepo, ledgerRepo)

	report, err := uc.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalAccounts != 2 {
		t.Errorf("expected 2 accounts, got %d", report.TotalAccounts)
	}
	if report.ReconciledAccounts != 2 {
		t.Errorf("expected 2 reconciled accounts, got %d", report.ReconciledAccounts)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %d", len(report.Discrepancies))
	}
	if !report.LedgerConsistent {
		t.Error("expected consistent ledger")
	}
}
