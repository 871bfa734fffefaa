package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/infrastructure/postgres/generated"
	"github.com/smartbank/ledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create inserts a new account and fills in its assigned ID.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	row, err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		AccountNumber: account.AccountNumber,
		Name:          account.Name,
		Balance:       decimalToNumeric(account.Balance),
		SeedBalance:   decimalToNumeric(account.SeedBalance),
		Version:       account.Version,
		CreatedAt:     timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return mapPgError(err)
	}

	account.ID = row.ID
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToAccount(row), nil
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate locks the accounts with FOR UPDATE. Postgres acquires
// the row locks in the ORDER BY id order, which keeps the locking protocol
// deadlock free. Closed accounts are excluded.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, mapPgError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// GetByIDForUpdate locks a single account with FOR UPDATE.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToAccount(row), nil
}

// ApplyBalanceDelta adjusts the balance by a signed amount and returns the
// new balance. The accounts table carries a balance >= 0 check, so an
// overdraw surfaces as domain.ErrNegativeBalance.
func (r *AccountRepository) ApplyBalanceDelta(ctx context.Context, tx usecase.Transaction, id int64, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	balance, err := queries.ApplyAccountBalanceDelta(ctx, generated.ApplyAccountBalanceDeltaParams{
		ID:        id,
		Delta:     decimalToNumeric(delta),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}

		return decimal.Zero, mapPgError(err)
	}

	return numericToDecimal(balance), nil
}

// Update applies a partial update to the account.
func (r *AccountRepository) Update(ctx context.Context, id int64, update usecase.AccountUpdate, updatedAt time.Time) (*domain.Account, error) {
	if update.Name == nil {
		return nil, domain.ErrNoUpdatableFieldsGiven
	}

	row, err := r.queries.UpdateAccountName(ctx, generated.UpdateAccountNameParams{
		ID:        id,
		Name:      *update.Name,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToAccount(row), nil
}

// Close soft-deletes the account within the transaction.
func (r *AccountRepository) Close(ctx context.Context, tx usecase.Transaction, id int64, closedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return mapPgError(queries.CloseAccount(ctx, generated.CloseAccountParams{
		ID:       id,
		ClosedAt: timeToPgTimestamptz(closedAt),
	}))
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	var closedAt *time.Time
	if row.ClosedAt.Valid {
		t := row.ClosedAt.Time
		closedAt = &t
	}

	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		Name:          row.Name,
		Balance:       numericToDecimal(row.Balance),
		SeedBalance:   numericToDecimal(row.SeedBalance),
		Version:       row.Version,
		ClosedAt:      closedAt,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
