package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindTransfer EntryKind = "transfer"
	EntryKindDeposit  EntryKind = "deposit"
)

// Entry is one immutable row of the ledger journal. The sequence ID is
// assigned by the store on append. SourceAccountID is nil only for deposits.
type Entry struct {
	ID                   int64
	SourceAccountID      *int64
	DestinationAccountID int64
	Amount               decimal.Decimal
	Kind                 EntryKind
	Description          string
	IdempotencyKey       *string
	CommittedAt          time.Time
}

// SignedAmountFor returns the entry's contribution to the given account's
// balance: positive for credits, negative for debits, zero otherwise.
func (e *Entry) SignedAmountFor(accountID int64) decimal.Decimal {
	if e.DestinationAccountID == accountID {
		return e.Amount
	}
	if e.SourceAccountID != nil && *e.SourceAccountID == accountID {
		return e.Amount.Neg()
	}
	return decimal.Zero
}
