package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
)

// TransferUseCase is the transfer engine: it validates a requested movement,
// acquires exclusive access to both accounts in a fixed total order, mutates
// balances and appends the journal entry as one atomic unit.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	lockWait    time.Duration
}

// NewTransferUseCase creates a new TransferUseCase. A non-positive lockWait
// falls back to DefaultLockWait.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	lockWait time.Duration,
) *TransferUseCase {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}

	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		lockWait:    lockWait,
	}
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       *string
}

// CreateDepositInput represents input for an external deposit.
type CreateDepositInput struct {
	DestinationAccountID int64
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       *string
}

// TransferResult is the outcome of a committed movement: the journal entry
// and the new balance of the caller's account (the source for transfers,
// the destination for deposits).
type TransferResult struct {
	Entry            *domain.Entry
	NewSourceBalance decimal.Decimal
}

// CreateTransfer moves amount from the source to the destination account.
// All validation errors are returned before any mutation; once mutation
// starts, the deferred rollback guarantees no partial state survives.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	req := &domain.TransferRequest{
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		Amount:               input.Amount,
		Description:          input.Description,
		IdempotencyKey:       input.IdempotencyKey,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		if err := domain.ValidateIdempotencyKey(*input.IdempotencyKey); err != nil {
			return nil, err
		}

		if result, ok, err := uc.replay(ctx, *input.IdempotencyKey); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}
	}

	// Lock order: ascending account id, regardless of direction. Two
	// transfers over the same pair can never hold opposite halves.
	ids := []int64{input.SourceAccountID, input.DestinationAccountID}
	slices.Sort(ids)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	source, dest, err := uc.lockPair(ctx, tx, ids, input.SourceAccountID, input.DestinationAccountID)
	if err != nil {
		return nil, err
	}

	// The funds check happens only while both locks are held.
	if err := source.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	newSourceBalance, err := uc.accountRepo.ApplyBalanceDelta(ctx, tx, source.ID, input.Amount.Neg(), now)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if _, err := uc.accountRepo.ApplyBalanceDelta(ctx, tx, dest.ID, input.Amount, now); err != nil {
		return nil, mapStoreErr(err)
	}

	sourceID := source.ID
	entry := &domain.Entry{
		SourceAccountID:      &sourceID,
		DestinationAccountID: dest.ID,
		Amount:               input.Amount,
		Kind:                 domain.EntryKindTransfer,
		Description:          defaultDescription(input.Description, "Transfer between accounts"),
		IdempotencyKey:       input.IdempotencyKey,
		CommittedAt:          now,
	}

	entry, err = uc.append(ctx, tx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) && input.IdempotencyKey != nil {
			// A concurrent request with the same key won the race.
			tx.Rollback(ctx)

			if result, ok, rerr := uc.replay(ctx, *input.IdempotencyKey); rerr == nil && ok {
				return result, nil
			}
		}

		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStoreErr(err)
	}

	return &TransferResult{Entry: entry, NewSourceBalance: newSourceBalance}, nil
}

// Deposit credits a single account from outside the ledger and appends a
// journal entry with no source account.
func (uc *TransferUseCase) Deposit(ctx context.Context, input CreateDepositInput) (*TransferResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		if err := domain.ValidateIdempotencyKey(*input.IdempotencyKey); err != nil {
			return nil, err
		}

		if result, ok, err := uc.replay(ctx, *input.IdempotencyKey); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockWait)
	defer cancel()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(lockCtx, tx, []int64{input.DestinationAccountID})
	if err != nil {
		return nil, mapLockErr(err)
	}

	if len(accounts) == 0 {
		return nil, domain.ErrDestinationNotFound
	}

	now := time.Now().UTC()

	newBalance, err := uc.accountRepo.ApplyBalanceDelta(ctx, tx, input.DestinationAccountID, input.Amount, now)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	entry := &domain.Entry{
		DestinationAccountID: input.DestinationAccountID,
		Amount:               input.Amount,
		Kind:                 domain.EntryKindDeposit,
		Description:          defaultDescription(input.Description, "Deposit"),
		IdempotencyKey:       input.IdempotencyKey,
		CommittedAt:          now,
	}

	entry, err = uc.append(ctx, tx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) && input.IdempotencyKey != nil {
			tx.Rollback(ctx)

			if result, ok, rerr := uc.replay(ctx, *input.IdempotencyKey); rerr == nil && ok {
				return result, nil
			}
		}

		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStoreErr(err)
	}

	return &TransferResult{Entry: entry, NewSourceBalance: newBalance}, nil
}

// lockPair acquires both accounts in the given (sorted) order and resolves
// which row is the source and which the destination.
func (uc *TransferUseCase) lockPair(ctx context.Context, tx Transaction, sortedIDs []int64, sourceID, destID int64) (source, dest *domain.Account, err error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockWait)
	defer cancel()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(lockCtx, tx, sortedIDs)
	if err != nil {
		return nil, nil, mapLockErr(err)
	}

	for _, a := range accounts {
		switch a.ID {
		case sourceID:
			source = a
		case destID:
			dest = a
		}
	}

	if source == nil {
		return nil, nil, domain.ErrSourceNotFound
	}

	if dest == nil {
		return nil, nil, domain.ErrDestinationNotFound
	}

	return source, dest, nil
}

// append writes the journal entry and its outbox event in the same
// transaction, so the event is exactly as durable as the movement.
func (uc *TransferUseCase) append(ctx context.Context, tx Transaction, entry *domain.Entry) (*domain.Entry, error) {
	entry, err := uc.entryRepo.Append(ctx, tx, entry)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   fmt.Sprintf("%d", entry.ID),
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeTransferCommitted,
		CreatedAt:     entry.CommittedAt,
	}

	switch entry.Kind {
	case domain.EntryKindDeposit:
		event.EventType = domain.EventTypeDepositCommitted
		event.Payload = domain.MarshalState(domain.DepositCommittedEvent{
			EntryID:              entry.ID,
			DestinationAccountID: entry.DestinationAccountID,
			Amount:               entry.Amount.String(),
			CommittedAt:          entry.CommittedAt.Format(time.RFC3339Nano),
		})
	default:
		event.Payload = domain.MarshalState(domain.TransferCommittedEvent{
			EntryID:              entry.ID,
			SourceAccountID:      *entry.SourceAccountID,
			DestinationAccountID: entry.DestinationAccountID,
			Amount:               entry.Amount.String(),
			CommittedAt:          entry.CommittedAt.Format(time.RFC3339Nano),
		})
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, mapStoreErr(err)
	}

	return entry, nil
}

// replay returns the previously committed result for an idempotency key,
// if one exists.
func (uc *TransferUseCase) replay(ctx context.Context, key string) (*TransferResult, bool, error) {
	entry, err := uc.entryRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, false, nil
		}

		return nil, false, mapStoreErr(err)
	}

	accountID := entry.DestinationAccountID
	if entry.SourceAccountID != nil {
		accountID = *entry.SourceAccountID
	}

	balance := decimal.Zero
	if account, err := uc.accountRepo.GetByID(ctx, accountID); err == nil {
		balance = account.Balance
	}

	return &TransferResult{Entry: entry, NewSourceBalance: balance}, true, nil
}

func defaultDescription(given, fallback string) string {
	if given == "" {
		return fallback
	}

	return given
}

// mapLockErr classifies lock acquisition failures: a deadline hit while
// waiting maps to ErrLockTimeout, everything else goes through the usual
// store classification.
func mapLockErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrLockTimeout
	}

	return mapStoreErr(err)
}

// mapStoreErr classifies store errors: domain sentinels pass through,
// anything else is a storage failure.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		domain.ErrNegativeBalance,
		domain.ErrLockTimeout,
		domain.ErrDuplicateIdempotencyKey,
		domain.ErrAccountNotFound,
		domain.ErrEntryNotFound,
		domain.ErrSourceNotFound,
		domain.ErrDestinationNotFound,
		domain.ErrStorageFailure,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
}
