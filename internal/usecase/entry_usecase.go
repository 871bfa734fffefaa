package usecase

import (
	"context"

	"github.com/smartbank/ledger/internal/domain"
)

// EntryUseCase handles read access to the ledger journal.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntry retrieves a journal entry by its sequence ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return entry, nil
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID int64
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries touching an account, newest first.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultPageSize
	}
	if input.Limit > MaxPageSize {
		input.Limit = MaxPageSize
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	entries, err := uc.entryRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return entries, nil
}
