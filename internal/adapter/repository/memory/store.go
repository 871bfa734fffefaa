// Package memory provides an in-memory implementation of the store
// contracts. It backs unit and property tests and local development runs
// where no database is available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/usecase"
)

// Store holds all ledger state in process. Mutations made through a
// transaction are applied eagerly and reverted through an undo log on
// rollback. Account locks are per-account channels with capacity one,
// acquired in the order the caller gives and held until the transaction
// ends.
type Store struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	entries  []*domain.Entry
	outbox   []*domain.OutboxEvent
	audits   []*domain.AuditLog
	locks    map[int64]chan struct{}

	nextAccountID int64
	nextEntryID   int64

	// AppendHook, when set, runs before an entry append is applied.
	// Returning an error fails the append; tests use this to verify
	// that a failed append leaves no partial state behind.
	AppendHook func(entry *domain.Entry) error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*domain.Account),
		locks:    make(map[int64]chan struct{}),
	}
}

// Accounts returns the store's AccountRepository view.
func (s *Store) Accounts() usecase.AccountRepository { return accountStore{s} }

// Entries returns the store's EntryRepository view.
func (s *Store) Entries() usecase.EntryRepository { return entryStore{s} }

// Ledger returns the store's LedgerRepository view.
func (s *Store) Ledger() usecase.LedgerRepository { return ledgerStore{s} }

// Outbox returns the store's OutboxRepository view.
func (s *Store) Outbox() usecase.OutboxRepository { return outboxStore{s} }

// Audits returns the store's AuditRepository view.
func (s *Store) Audits() usecase.AuditRepository { return auditStore{s} }

// Tx is an in-memory transaction: an undo log plus the account locks held.
type Tx struct {
	store *Store

	mu   sync.Mutex
	done bool
	held []int64
	undo []func()
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{store: s}, nil
}

// Commit makes the transaction's mutations permanent and releases its locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.undo = nil
	t.releaseLocks()
	return nil
}

// Rollback reverts the transaction's mutations. Rolling back after a commit
// is a no-op, so a deferred rollback is always safe.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil

	t.releaseLocks()
	return nil
}

func (t *Tx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-t.store.locks[t.held[i]]
	}
	t.held = nil
}

func (t *Tx) recordUndo(fn func()) {
	t.mu.Lock()
	t.undo = append(t.undo, fn)
	t.mu.Unlock()
}

func asTx(tx usecase.Transaction) *Tx {
	if t, ok := tx.(*Tx); ok {
		return t
	}
	return nil
}

// acquireLock blocks until the account lock is free or the context expires.
func (s *Store) acquireLock(ctx context.Context, t *Tx, id int64) error {
	s.mu.Lock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		if t != nil {
			t.mu.Lock()
			t.held = append(t.held, id)
			t.mu.Unlock()
		} else {
			<-ch
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.ClosedAt != nil {
		closedAt := *a.ClosedAt
		c.ClosedAt = &closedAt
	}
	return &c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	if e.SourceAccountID != nil {
		id := *e.SourceAccountID
		c.SourceAccountID = &id
	}
	if e.IdempotencyKey != nil {
		key := *e.IdempotencyKey
		c.IdempotencyKey = &key
	}
	return &c
}

// CreateAccount adds an account and assigns its ID.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return domain.ErrAccountNumberTaken
		}
	}

	s.nextAccountID++
	account.ID = s.nextAccountID
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

// GetAccountByID returns a snapshot of the account.
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// GetAccountByNumber returns a snapshot of the account with the given number.
func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.AccountNumber == number {
			return cloneAccount(account), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// LockAccounts locks the accounts in the order given and returns snapshots
// of the open ones. The locks stay held until the transaction ends.
func (s *Store) LockAccounts(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	t := asTx(tx)

	for _, id := range ids {
		if err := s.acquireLock(ctx, t, id); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*domain.Account
	for _, id := range ids {
		if account, ok := s.accounts[id]; ok && !account.Closed() {
			accounts = append(accounts, cloneAccount(account))
		}
	}
	return accounts, nil
}

// LockAccount locks a single account and returns its snapshot.
func (s *Store) LockAccount(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	if err := s.acquireLock(ctx, asTx(tx), id); err != nil {
		return nil, err
	}

	return s.GetAccountByID(ctx, id)
}

// ApplyBalanceDelta adjusts the balance by a signed amount and returns the
// new balance.
func (s *Store) ApplyBalanceDelta(ctx context.Context, tx usecase.Transaction, id int64, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	next := account.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrNegativeBalance
	}

	prevBalance := account.Balance
	prevVersion := account.Version
	prevUpdated := account.UpdatedAt

	account.Balance = next
	account.Version++
	account.UpdatedAt = updatedAt

	if t := asTx(tx); t != nil {
		t.recordUndo(func() {
			account.Balance = prevBalance
			account.Version = prevVersion
			account.UpdatedAt = prevUpdated
		})
	}

	return next, nil
}

// UpdateAccount applies a partial update to the account.
func (s *Store) UpdateAccount(ctx context.Context, id int64, update usecase.AccountUpdate, updatedAt time.Time) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if update.Name != nil {
		account.Name = *update.Name
	}
	account.UpdatedAt = updatedAt

	return cloneAccount(account), nil
}

// CloseAccount soft-deletes the account.
func (s *Store) CloseAccount(ctx context.Context, tx usecase.Transaction, id int64, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	account.ClosedAt = &closedAt

	if t := asTx(tx); t != nil {
		t.recordUndo(func() {
			account.ClosedAt = nil
		})
	}

	return nil
}

// ListAccounts returns account snapshots ordered by ID.
func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*domain.Account
	for id := int64(1); id <= s.nextAccountID; id++ {
		if account, ok := s.accounts[id]; ok {
			accounts = append(accounts, cloneAccount(account))
		}
	}

	if offset >= len(accounts) {
		return nil, nil
	}
	accounts = accounts[offset:]
	if limit > 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// AppendEntry adds an entry to the journal and assigns its sequence ID.
func (s *Store) AppendEntry(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.IdempotencyKey != nil {
		for _, existing := range s.entries {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *entry.IdempotencyKey {
				return nil, domain.ErrDuplicateIdempotencyKey
			}
		}
	}

	if s.AppendHook != nil {
		if err := s.AppendHook(entry); err != nil {
			return nil, err
		}
	}

	s.nextEntryID++
	stored := cloneEntry(entry)
	stored.ID = s.nextEntryID
	s.entries = append(s.entries, stored)

	if t := asTx(tx); t != nil {
		t.recordUndo(func() {
			s.entries = s.entries[:len(s.entries)-1]
		})
	}

	return cloneEntry(stored), nil
}

// GetEntryByID returns the entry with the given sequence ID.
func (s *Store) GetEntryByID(ctx context.Context, id int64) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return cloneEntry(entry), nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

// GetEntryByIdempotencyKey returns the entry recorded under the key.
func (s *Store) GetEntryByIdempotencyKey(ctx context.Context, key string) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.IdempotencyKey != nil && *entry.IdempotencyKey == key {
			return cloneEntry(entry), nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

// ListEntriesByAccount returns the account's entries, newest first.
func (s *Store) ListEntriesByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*domain.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !s.entries[i].SignedAmountFor(accountID).IsZero() {
			entries = append(entries, cloneEntry(s.entries[i]))
		}
	}

	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// SumEntriesByAccount returns the signed sum of the account's entries.
func (s *Store) SumEntriesByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := decimal.Zero
	for _, entry := range s.entries {
		sum = sum.Add(entry.SignedAmountFor(accountID))
	}
	return sum, nil
}

// CheckConsistency returns the total drift of balances from seeds and the
// total of all deposit entries.
func (s *Store) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balanceDelta := decimal.Zero
	for _, account := range s.accounts {
		balanceDelta = balanceDelta.Add(account.Balance.Sub(account.SeedBalance))
	}

	depositTotal := decimal.Zero
	for _, entry := range s.entries {
		if entry.Kind == domain.EntryKindDeposit {
			depositTotal = depositTotal.Add(entry.Amount)
		}
	}

	return balanceDelta, depositTotal, nil
}

// CreateEvent records an outbox event.
func (s *Store) CreateEvent(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *event
	s.outbox = append(s.outbox, &stored)

	if t := asTx(tx); t != nil {
		t.recordUndo(func() {
			s.outbox = s.outbox[:len(s.outbox)-1]
		})
	}

	return nil
}

// GetUnpublished returns events not yet published.
func (s *Store) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unpublished []*domain.OutboxEvent
	for _, event := range s.outbox {
		if event.Published {
			continue
		}
		copied := *event
		unpublished = append(unpublished, &copied)
		if len(unpublished) == limit {
			break
		}
	}
	return unpublished, nil
}

// MarkPublished flags an event as published.
func (s *Store) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.outbox {
		if event.ID == id {
			event.Published = true
			event.PublishedAt = &publishedAt
		}
	}
	return nil
}

// DeletePublished removes events published before the cutoff.
func (s *Store) DeletePublished(ctx context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*domain.OutboxEvent
	for _, event := range s.outbox {
		if !event.Published || event.PublishedAt == nil || !event.PublishedAt.Before(before) {
			kept = append(kept, event)
		}
	}
	s.outbox = kept
	return nil
}

// CreateAuditLog records an audit log.
func (s *Store) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *log
	s.audits = append(s.audits, &stored)
	return nil
}

// ListAuditLogs returns audit logs matching the filter, newest first.
func (s *Store) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []*domain.AuditLog
	for i := len(s.audits) - 1; i >= 0; i-- {
		log := s.audits[i]
		if filter.Actor != "" && log.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && log.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && log.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && log.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && log.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && log.CreatedAt.After(*filter.EndDate) {
			continue
		}
		copied := *log
		logs = append(logs, &copied)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(logs) {
			return nil, nil
		}
		logs = logs[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(logs) {
		logs = logs[:filter.Limit]
	}
	return logs, nil
}

// TotalBalance sums all account balances. Test helper for conservation
// checks.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total
}

// EntryCount returns the number of journal entries. Test helper.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Facades exposing the store through the repository contracts.

type accountStore struct{ s *Store }

func (a accountStore) Create(ctx context.Context, account *domain.Account) error {
	return a.s.CreateAccount(ctx, account)
}

func (a accountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return a.s.GetAccountByID(ctx, id)
}

func (a accountStore) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return a.s.GetAccountByNumber(ctx, number)
}

func (a accountStore) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	return a.s.LockAccounts(ctx, tx, ids)
}

func (a accountStore) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	return a.s.LockAccount(ctx, tx, id)
}

func (a accountStore) ApplyBalanceDelta(ctx context.Context, tx usecase.Transaction, id int64, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	return a.s.ApplyBalanceDelta(ctx, tx, id, delta, updatedAt)
}

func (a accountStore) Update(ctx context.Context, id int64, update usecase.AccountUpdate, updatedAt time.Time) (*domain.Account, error) {
	return a.s.UpdateAccount(ctx, id, update, updatedAt)
}

func (a accountStore) Close(ctx context.Context, tx usecase.Transaction, id int64, closedAt time.Time) error {
	return a.s.CloseAccount(ctx, tx, id, closedAt)
}

func (a accountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return a.s.ListAccounts(ctx, limit, offset)
}

type entryStore struct{ s *Store }

func (e entryStore) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) (*domain.Entry, error) {
	return e.s.AppendEntry(ctx, tx, entry)
}

func (e entryStore) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	return e.s.GetEntryByID(ctx, id)
}

func (e entryStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Entry, error) {
	return e.s.GetEntryByIdempotencyKey(ctx, key)
}

func (e entryStore) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Entry, error) {
	return e.s.ListEntriesByAccount(ctx, accountID, limit, offset)
}

func (e entryStore) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return e.s.SumEntriesByAccount(ctx, accountID)
}

type ledgerStore struct{ s *Store }

func (l ledgerStore) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return l.s.CheckConsistency(ctx)
}

type outboxStore struct{ s *Store }

func (o outboxStore) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return o.s.CreateEvent(ctx, tx, event)
}

func (o outboxStore) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return o.s.GetUnpublished(ctx, limit)
}

func (o outboxStore) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return o.s.MarkPublished(ctx, id, publishedAt)
}

func (o outboxStore) DeletePublished(ctx context.Context, before time.Time) error {
	return o.s.DeletePublished(ctx, before)
}

type auditStore struct{ s *Store }

func (a auditStore) Create(ctx context.Context, log *domain.AuditLog) error {
	return a.s.CreateAuditLog(ctx, log)
}

func (a auditStore) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	return a.s.ListAuditLogs(ctx, filter)
}
