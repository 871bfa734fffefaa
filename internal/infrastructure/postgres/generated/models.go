
package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID            int64              `json:"id"`
	AccountNumber string             `json:"account_number"`
	Name          string             `json:"name"`
	Balance       pgtype.Numeric     `json:"balance"`
	SeedBalance   pgtype.Numeric     `json:"seed_balance"`
	Version       int64              `json:"version"`
	ClosedAt      pgtype.Timestamptz `json:"closed_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type LedgerEntry struct {
	ID                   int64              `json:"id"`
	SourceAccountID      pgtype.Int8        `json:"source_account_id"`
	DestinationAccountID int64              `json:"destination_account_id"`
	Amount               pgtype.Numeric     `json:"amount"`
	Kind                 string             `json:"kind"`
	Description          string             `json:"description"`
	IdempotencyKey       pgtype.Text        `json:"idempotency_key"`
	CommittedAt          pgtype.Timestamptz `json:"committed_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type AuditLog struct {
	ID           string             `json:"id"`
	Actor        string             `json:"actor"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RequestID    string             `json:"request_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
