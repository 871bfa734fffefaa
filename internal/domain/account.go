package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account that holds a balance.
// Balances are mutated only by the transfer engine; the row itself is never
// deleted, closing sets ClosedAt.
type Account struct {
	ID            int64
	AccountNumber string
	Name          string
	Balance       decimal.Decimal
	SeedBalance   decimal.Decimal
	Version       int64
	ClosedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Closed reports whether the account has been soft-deleted.
func (a *Account) Closed() bool {
	return a.ClosedAt != nil
}

// ValidateDebit checks if the account holds enough balance to be debited.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
