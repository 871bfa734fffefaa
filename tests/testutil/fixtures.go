package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger/internal/domain"
	"github.com/smartbank/ledger/internal/infrastructure/postgres"
	"github.com/smartbank/ledger/internal/infrastructure/postgres/generated"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB creates a new test database connection. Tests calling this are
// skipped unless DATABASE_URL points at a reachable Postgres.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	migrationsPath := "internal/infrastructure/postgres/migrations"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		// Relative from tests/integration
		migrationsPath = "../../internal/infrastructure/postgres/migrations"
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE audit_logs CASCADE;
		TRUNCATE TABLE outbox_events CASCADE;
		TRUNCATE TABLE ledger_entries CASCADE;
		TRUNCATE TABLE accounts CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestAccount creates an account with a zero balance.
func (db *TestDB) CreateTestAccount(ctx context.Context, name string) *domain.Account {
	return db.CreateTestAccountWithBalance(ctx, name, decimal.Zero)
}

// CreateTestAccountWithBalance creates an account whose balance and seed
// balance both equal the given amount, as if it was opened with that seed.
func (db *TestDB) CreateTestAccountWithBalance(ctx context.Context, name string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()

	var numericBalance pgtype.Numeric
	_ = numericBalance.Scan(balance.StringFixed(2))

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	row, err := db.Queries.CreateAccount(ctx, generated.CreateAccountParams{
		AccountNumber: GenerateAccountNumber(),
		Name:          name,
		Balance:       numericBalance,
		SeedBalance:   numericBalance,
		Version:       1,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		Name:          name,
		Balance:       balance,
		SeedBalance:   balance,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// GenerateAccountNumber generates a unique account number.
func GenerateAccountNumber() string {
	return "ACC-" + ulid.Make().String()
}

// GenerateID generates a new ULID, usable as an idempotency key.
func GenerateID() string {
	return ulid.Make().String()
}
