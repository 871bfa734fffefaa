package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
)

// AccountUpdate is the enumerated set of admin-updatable account fields.
// Account numbers are immutable and balances change only through transfers.
type AccountUpdate struct {
	Name *string
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// GetByIDsForUpdate locks the given accounts exclusively until the
	// enclosing transaction ends. Accounts must be locked in the order
	// given; closed accounts are not returned.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []int64) ([]*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	// ApplyBalanceDelta adjusts the balance by a signed amount within the
	// transaction and returns the new balance. Fails with
	// domain.ErrNegativeBalance if the result would drop below zero.
	ApplyBalanceDelta(ctx context.Context, tx Transaction, id int64, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
	Update(ctx context.Context, id int64, update AccountUpdate, updatedAt time.Time) (*domain.Account, error)
	Close(ctx context.Context, tx Transaction, id int64, closedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for the ledger journal.
type EntryRepository interface {
	// Append durably appends the entry within the transaction and returns
	// it with the store-assigned sequence id. A conflicting idempotency
	// key surfaces as domain.ErrDuplicateIdempotencyKey.
	Append(ctx context.Context, tx Transaction, entry *domain.Entry) (*domain.Entry, error)
	GetByID(ctx context.Context, id int64) (*domain.Entry, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Entry, error)
	// SumByAccount returns the signed sum of all entries referencing the
	// account: credits positive, debits negative.
	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

// LedgerRepository defines ledger-wide consistency queries.
type LedgerRepository interface {
	// CheckConsistency returns the total balance drift from seeds
	// (sum of balance - seed over all accounts) and the total of all
	// deposit entries. The two are equal in a consistent ledger.
	CheckConsistency(ctx context.Context) (balanceDelta, depositTotal decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents one atomic unit: all mutations made through it
// become visible together on Commit or not at all.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique string IDs (outbox events, audit logs,
// account numbers).
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors. It is only
// used for background work; transfers report their outcome as-is.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles HTTP-level idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
