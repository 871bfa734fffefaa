
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const applyAccountBalanceDelta = `-- name: ApplyAccountBalanceDelta :one
UPDATE accounts
SET balance = balance + $2, version = version + 1, updated_at = $3
WHERE id = $1
RETURNING balance
`

type ApplyAccountBalanceDeltaParams struct {
	ID        int64              `json:"id"`
	Delta     pgtype.Numeric     `json:"delta"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) ApplyAccountBalanceDelta(ctx context.Context, arg ApplyAccountBalanceDeltaParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, applyAccountBalanceDelta, arg.ID, arg.Delta, arg.UpdatedAt)
	var balance pgtype.Numeric
	err := row.Scan(&balance)
	return balance, err
}

const closeAccount = `-- name: CloseAccount :exec
UPDATE accounts
SET closed_at = $2, updated_at = $2
WHERE id = $1 AND closed_at IS NULL
`

type CloseAccountParams struct {
	ID       int64              `json:"id"`
	ClosedAt pgtype.Timestamptz `json:"closed_at"`
}

func (q *Queries) CloseAccount(ctx context.Context, arg CloseAccountParams) error {
	_, err := q.db.Exec(ctx, closeAccount, arg.ID, arg.ClosedAt)
	return err
}

const countAccounts = `-- name: CountAccounts :one
SELECT COUNT(*) FROM accounts
`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (account_number, name, balance, seed_balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at
`

type CreateAccountParams struct {
	AccountNumber string             `json:"account_number"`
	Name          string             `json:"name"`
	Balance       pgtype.Numeric     `json:"balance"`
	SeedBalance   pgtype.Numeric     `json:"seed_balance"`
	Version       int64              `json:"version"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.AccountNumber,
		arg.Name,
		arg.Balance,
		arg.SeedBalance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Name,
		&i.Balance,
		&i.SeedBalance,
		&i.Version,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Name,
		&i.Balance,
		&i.SeedBalance,
		&i.Version,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Name,
		&i.Balance,
		&i.SeedBalance,
		&i.Version,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByNumber = `-- name: GetAccountByNumber :one
SELECT id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at FROM accounts WHERE account_number = $1
`

func (q *Queries) GetAccountByNumber(ctx context.Context, accountNumber string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByNumber, accountNumber)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Name,
		&i.Balance,
		&i.SeedBalance,
		&i.Version,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountsByIDsForUpdate = `-- name: GetAccountsByIDsForUpdate :many
SELECT id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at FROM accounts WHERE id = ANY($1::bigint[]) AND closed_at IS NULL ORDER BY id FOR UPDATE
`

func (q *Queries) GetAccountsByIDsForUpdate(ctx context.Context, dollar_1 []int64) ([]Account, error) {
	rows, err := q.db.Query(ctx, getAccountsByIDsForUpdate, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.Name,
			&i.Balance,
			&i.SeedBalance,
			&i.Version,
			&i.ClosedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listAccounts = `-- name: ListAccounts :many
SELECT id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at FROM accounts ORDER BY id LIMIT $1 OFFSET $2
`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.Name,
			&i.Balance,
			&i.SeedBalance,
			&i.Version,
			&i.ClosedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updateAccountName = `-- name: UpdateAccountName :one
UPDATE accounts
SET name = $2, updated_at = $3
WHERE id = $1
RETURNING id, account_number, name, balance, seed_balance, version, closed_at, created_at, updated_at
`

type UpdateAccountNameParams struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountName(ctx context.Context, arg UpdateAccountNameParams) (Account, error) {
	row := q.db.QueryRow(ctx, updateAccountName, arg.ID, arg.Name, arg.UpdatedAt)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Name,
		&i.Balance,
		&i.SeedBalance,
		&i.Version,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
