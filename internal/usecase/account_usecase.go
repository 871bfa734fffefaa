package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
)

// AccountUseCase handles account provisioning and lifecycle.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	lockWait    time.Duration
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	lockWait time.Duration,
) *AccountUseCase {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}

	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		lockWait:    lockWait,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name        string
	SeedBalance decimal.Decimal
	Actor       string
	RequestID   string
}

// CreateAccount opens a new account. The seed balance, if any, becomes the
// opening balance and is recorded separately so reconciliation can tell
// seeded money from deposited money.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	if input.SeedBalance.IsNegative() {
		return nil, domain.ErrNegativeSeedBalance
	}

	if input.SeedBalance.Exponent() < -domain.CurrencyScale {
		return nil, fmt.Errorf("%w: got %s", domain.ErrInvalidAmount, input.SeedBalance.String())
	}

	now := time.Now().UTC()

	account := &domain.Account{
		AccountNumber: "ACC-" + uc.idGen.Generate(),
		Name:          input.Name,
		Balance:       input.SeedBalance,
		SeedBalance:   input.SeedBalance,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountCreate, "", nil, nil, err)
		return nil, mapStoreErr(err)
	}

	uc.emitAccountEvent(ctx, domain.EventTypeAccountCreated, account, domain.MarshalState(domain.AccountCreatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		SeedBalance:   account.SeedBalance.String(),
	}))

	uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountCreate,
		fmt.Sprintf("%d", account.ID), nil, domain.MarshalState(account), nil)

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return account, nil
}

// GetAccountByNumber retrieves an account by its account number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultPageSize
	}
	if input.Limit > MaxPageSize {
		input.Limit = MaxPageSize
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	accounts, err := uc.accountRepo.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return accounts, nil
}

// UpdateAccountInput represents input for updating an account.
type UpdateAccountInput struct {
	Name      *string
	Actor     string
	RequestID string
}

// UpdateAccount applies a partial update to the account's mutable fields.
// Balances and account numbers cannot be updated through this path.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, id int64, input UpdateAccountInput) (*domain.Account, error) {
	if input.Name == nil {
		return nil, domain.ErrNoUpdatableFieldsGiven
	}

	if err := domain.ValidateAccountName(*input.Name); err != nil {
		return nil, err
	}

	before, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if before.Closed() {
		return nil, domain.ErrAccountClosed
	}

	account, err := uc.accountRepo.Update(ctx, id, AccountUpdate{Name: input.Name}, time.Now().UTC())
	if err != nil {
		uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountUpdate,
			fmt.Sprintf("%d", id), domain.MarshalState(before), nil, err)
		return nil, mapStoreErr(err)
	}

	uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountUpdate,
		fmt.Sprintf("%d", id), domain.MarshalState(before), domain.MarshalState(account), nil)

	return account, nil
}

// CloseAccountInput represents input for closing an account.
type CloseAccountInput struct {
	AccountID int64
	Actor     string
	RequestID string
}

// CloseAccount soft-deletes an account. The account must be locked and hold
// a zero balance; its entries remain in the journal.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, input CloseAccountInput) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return mapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockWait)
	defer cancel()

	account, err := uc.accountRepo.GetByIDForUpdate(lockCtx, tx, input.AccountID)
	if err != nil {
		return mapLockErr(err)
	}

	if account.Closed() {
		return domain.ErrAccountClosed
	}

	if !account.Balance.IsZero() {
		return domain.ErrAccountNotEmpty
	}

	closedAt := time.Now().UTC()

	if err := uc.accountRepo.Close(ctx, tx, input.AccountID, closedAt); err != nil {
		return mapStoreErr(err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   fmt.Sprintf("%d", account.ID),
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountClosed,
		Payload: domain.JSON{
			"account_id": account.ID,
			"closed_at":  closedAt.Format(time.RFC3339Nano),
		},
		CreatedAt: closedAt,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return mapStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountClose,
			fmt.Sprintf("%d", input.AccountID), domain.MarshalState(account), nil, err)
		return mapStoreErr(err)
	}

	uc.audit(ctx, input.Actor, input.RequestID, domain.AuditActionAccountClose,
		fmt.Sprintf("%d", input.AccountID), domain.MarshalState(account), nil, nil)

	return nil
}

// emitAccountEvent writes an account lifecycle event through a short
// transaction of its own. These events are informational; a failure here
// never fails the account operation.
func (uc *AccountUseCase) emitAccountEvent(ctx context.Context, eventType string, account *domain.Account, payload domain.JSON) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return
	}
	defer tx.Rollback(ctx)

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   fmt.Sprintf("%d", account.ID),
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return
	}

	_ = tx.Commit(ctx)
}

// audit records an administrative action. Audit writes are best effort.
func (uc *AccountUseCase) audit(ctx context.Context, actor, requestID string, action domain.AuditAction, resourceID string, before, after domain.JSON, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Actor:        actor,
		Action:       string(action),
		ResourceType: "account",
		ResourceID:   resourceID,
		RequestID:    requestID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}

	if opErr != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = opErr.Error()
	}

	_ = uc.auditRepo.Create(ctx, log)
}
