package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
)

// ReconciliationUseCase verifies that stored balances agree with the journal.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ReconciliationResult compares an account's stored balance with the balance
// replayed from its journal entries.
type ReconciliationResult struct {
	AccountID         int64
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount replays the account's entries over its seed balance and
// compares the result with the stored balance.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID int64) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	signedSum, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	calculated := account.SeedBalance.Add(signedSum)
	difference := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        difference,
		IsReconciled:      difference.IsZero(),
		LastChecked:       time.Now().UTC(),
	}, nil
}

// CheckLedgerConsistency verifies the system-wide conservation invariant:
// all balance movement away from seeds must be accounted for by deposits.
// Transfers move money between accounts and cancel out.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	balanceDelta, depositTotal, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return mapStoreErr(err)
	}

	if !balanceDelta.Equal(depositTotal) {
		return fmt.Errorf(
			"ledger inconsistency detected: balance delta=%s deposits=%s difference=%s",
			balanceDelta.String(),
			depositTotal.String(),
			balanceDelta.Sub(depositTotal).String(),
		)
	}

	return nil
}

// ReconciliationReport is a full reconciliation sweep over all accounts.
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles every account and checks the
// ledger-wide invariant.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	limit, offset := domain.ValidatePagination(10000, 0)
	accounts, err := uc.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	report := &ReconciliationReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, account := range accounts {
		result, err := uc.ReconcileAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %d: %w", account.ID, err)
		}

		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	report.LedgerConsistent = uc.CheckLedgerConsistency(ctx) == nil

	return report, nil
}
