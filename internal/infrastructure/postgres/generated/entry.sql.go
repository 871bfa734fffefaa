
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    (SELECT COALESCE(SUM(balance - seed_balance), 0) FROM accounts) AS balance_delta,
    (SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE kind = 'deposit') AS deposit_total
`

type CheckLedgerConsistencyRow struct {
	BalanceDelta pgtype.Numeric `json:"balance_delta"`
	DepositTotal pgtype.Numeric `json:"deposit_total"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.BalanceDelta, &i.DepositTotal)
	return i, err
}

const countEntriesByAccount = `-- name: CountEntriesByAccount :one
SELECT COUNT(*) FROM ledger_entries WHERE source_account_id = $1 OR destination_account_id = $1
`

func (q *Queries) CountEntriesByAccount(ctx context.Context, accountID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countEntriesByAccount, accountID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createEntry = `-- name: CreateEntry :one
INSERT INTO ledger_entries (source_account_id, destination_account_id, amount, kind, description, idempotency_key, committed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, source_account_id, destination_account_id, amount, kind, description, idempotency_key, committed_at
`

type CreateEntryParams struct {
	SourceAccountID      pgtype.Int8        `json:"source_account_id"`
	DestinationAccountID int64              `json:"destination_account_id"`
	Amount               pgtype.Numeric     `json:"amount"`
	Kind                 string             `json:"kind"`
	Description          string             `json:"description"`
	IdempotencyKey       pgtype.Text        `json:"idempotency_key"`
	CommittedAt          pgtype.Timestamptz `json:"committed_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, createEntry,
		arg.SourceAccountID,
		arg.DestinationAccountID,
		arg.Amount,
		arg.Kind,
		arg.Description,
		arg.IdempotencyKey,
		arg.CommittedAt,
	)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.SourceAccountID,
		&i.DestinationAccountID,
		&i.Amount,
		&i.Kind,
		&i.Description,
		&i.IdempotencyKey,
		&i.CommittedAt,
	)
	return i, err
}

const getEntryByID = `-- name: GetEntryByID :one
SELECT id, source_account_id, destination_account_id, amount, kind, description, idempotency_key, committed_at FROM ledger_entries WHERE id = $1
`

func (q *Queries) GetEntryByID(ctx context.Context, id int64) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getEntryByID, id)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.SourceAccountID,
		&i.DestinationAccountID,
		&i.Amount,
		&i.Kind,
		&i.Description,
		&i.IdempotencyKey,
		&i.CommittedAt,
	)
	return i, err
}

const getEntryByIdempotencyKey = `-- name: GetEntryByIdempotencyKey :one
SELECT id, source_account_id, destination_account_id, amount, kind, description, idempotency_key, committed_at FROM ledger_entries WHERE idempotency_key = $1
`

func (q *Queries) GetEntryByIdempotencyKey(ctx context.Context, idempotencyKey pgtype.Text) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getEntryByIdempotencyKey, idempotencyKey)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.SourceAccountID,
		&i.DestinationAccountID,
		&i.Amount,
		&i.Kind,
		&i.Description,
		&i.IdempotencyKey,
		&i.CommittedAt,
	)
	return i, err
}

const listEntriesByAccount = `-- name: ListEntriesByAccount :many
SELECT id, source_account_id, destination_account_id, amount, kind, description, idempotency_key, committed_at FROM ledger_entries
WHERE source_account_id = $1 OR destination_account_id = $1
ORDER BY id DESC LIMIT $2 OFFSET $3
`

type ListEntriesByAccountParams struct {
	AccountID int64 `json:"account_id"`
	Limit     int32 `json:"limit"`
	Offset    int32 `json:"offset"`
}

func (q *Queries) ListEntriesByAccount(ctx context.Context, arg ListEntriesByAccountParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.SourceAccountID,
			&i.DestinationAccountID,
			&i.Amount,
			&i.Kind,
			&i.Description,
			&i.IdempotencyKey,
			&i.CommittedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumEntriesByAccount = `-- name: SumEntriesByAccount :one
SELECT COALESCE(SUM(
    CASE
        WHEN destination_account_id = $1 THEN amount
        WHEN source_account_id = $1 THEN -amount
        ELSE 0
    END
), 0)::numeric FROM ledger_entries
WHERE source_account_id = $1 OR destination_account_id = $1
`

func (q *Queries) SumEntriesByAccount(ctx context.Context, accountID int64) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumEntriesByAccount, accountID)
	var column_1 pgtype.Numeric
	err := row.Scan(&column_1)
	return column_1, err
}
