package domain

import "time"

// Event types
const (
	EventTypeTransferCommitted = "transfer.committed"
	EventTypeDepositCommitted  = "deposit.committed"
	EventTypeAccountCreated    = "account.created"
	EventTypeAccountClosed     = "account.closed"
)

// Aggregate types
const (
	AggregateTypeEntry   = "entry"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event written in the same transaction as the
// state change it describes, published after commit by a background poller.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransferCommittedEvent payload
type TransferCommittedEvent struct {
	EntryID              int64  `json:"entry_id"`
	SourceAccountID      int64  `json:"source_account_id"`
	DestinationAccountID int64  `json:"destination_account_id"`
	Amount               string `json:"amount"`
	CommittedAt          string `json:"committed_at"`
}

// DepositCommittedEvent payload
type DepositCommittedEvent struct {
	EntryID              int64  `json:"entry_id"`
	DestinationAccountID int64  `json:"destination_account_id"`
	Amount               string `json:"amount"`
	CommittedAt          string `json:"committed_at"`
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID     int64  `json:"account_id"`
	AccountNumber string `json:"account_number"`
	SeedBalance   string `json:"seed_balance"`
}
