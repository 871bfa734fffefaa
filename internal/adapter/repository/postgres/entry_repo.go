package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/infrastructure/postgres/generated"
	"github.com/smartbank/ledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository. The ledger_entries
// table is append only; its bigserial primary key is the journal sequence.
type EntryRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Append inserts the entry within the transaction and returns it with the
// assigned sequence ID. A partial unique index on idempotency_key turns a
// replayed key into domain.ErrDuplicateIdempotencyKey.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.CreateEntry(ctx, generated.CreateEntryParams{
		SourceAccountID:      int64PtrToPgInt8(entry.SourceAccountID),
		DestinationAccountID: entry.DestinationAccountID,
		Amount:               decimalToNumeric(entry.Amount),
		Kind:                 string(entry.Kind),
		Description:          entry.Description,
		IdempotencyKey:       stringPtrToPgText(entry.IdempotencyKey),
		CommittedAt:          timeToPgTimestamptz(entry.CommittedAt),
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	return rowToEntry(row), nil
}

// GetByID retrieves an entry by its sequence ID.
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToEntry(row), nil
}

// GetByIdempotencyKey retrieves the entry recorded under the key.
func (r *EntryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Entry, error) {
	row, err := r.queries.GetEntryByIdempotencyKey(ctx, pgtype.Text{String: key, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, mapPgError(err)
	}

	return rowToEntry(row), nil
}

// ListByAccount retrieves the account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// SumByAccount returns the signed sum of the account's entries.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	sum, err := r.queries.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, mapPgError(err)
	}

	return numericToDecimal(sum), nil
}

func rowToEntry(row generated.LedgerEntry) *domain.Entry {
	var sourceID *int64
	if row.SourceAccountID.Valid {
		id := row.SourceAccountID.Int64
		sourceID = &id
	}

	var idempotencyKey *string
	if row.IdempotencyKey.Valid {
		key := row.IdempotencyKey.String
		idempotencyKey = &key
	}

	return &domain.Entry{
		ID:                   row.ID,
		SourceAccountID:      sourceID,
		DestinationAccountID: row.DestinationAccountID,
		Amount:               numericToDecimal(row.Amount),
		Kind:                 domain.EntryKind(row.Kind),
		Description:          row.Description,
		IdempotencyKey:       idempotencyKey,
		CommittedAt:          row.CommittedAt.Time,
	}
}

func int64PtrToPgInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}

	return pgtype.Int8{Int64: *v, Valid: true}
}

func stringPtrToPgText(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{String: *v, Valid: true}
}
