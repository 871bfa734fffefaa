package dto

import (
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/usecase"
)

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	Name        string          `json:"name"`
	SeedBalance decimal.Decimal `json:"seed_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(actor, requestID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:        r.Name,
		SeedBalance: r.SeedBalance,
		Actor:       actor,
		RequestID:   requestID,
	}
}

// UpdateAccountRequest represents a partial account update. Absent fields
// are left untouched.
type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput(actor, requestID string) usecase.UpdateAccountInput {
	return usecase.UpdateAccountInput{
		Name:      r.Name,
		Actor:     actor,
		RequestID: requestID,
	}
}

// CreateTransferRequest represents a request to move money between two
// accounts.
type CreateTransferRequest struct {
	SourceAccountID      int64           `json:"source_account_id"`
	DestinationAccountID int64           `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty"`
	IdempotencyKey       *string         `json:"idempotency_key,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Description:          r.Description,
		IdempotencyKey:       r.IdempotencyKey,
	}
}

// CreateDepositRequest represents a request to credit an account from
// outside the ledger.
type CreateDepositRequest struct {
	DestinationAccountID int64           `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty"`
	IdempotencyKey       *string         `json:"idempotency_key,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDepositRequest) ToUseCaseInput() usecase.CreateDepositInput {
	return usecase.CreateDepositInput{
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Description:          r.Description,
		IdempotencyKey:       r.IdempotencyKey,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
