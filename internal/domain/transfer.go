package domain

import "github.com/shopspring/decimal"

// TransferRequest describes a requested money movement between two accounts.
// It is transient: only the ledger entry it produces is persisted.
type TransferRequest struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       *string
}

// Validate checks the request's local preconditions, in the order the engine
// reports them. Account existence and funds are checked under lock.
func (r *TransferRequest) Validate() error {
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}

	if r.SourceAccountID == r.DestinationAccountID {
		return ErrSelfTransfer
	}

	return nil
}
