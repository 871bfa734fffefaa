package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransferRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		sourceID    int64
		destID      int64
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:        "valid transfer",
			sourceID:    1,
			destID:      2,
			amount:      decimal.NewFromInt(100),
			expectError: nil,
		},
		{
			name:        "valid fractional amount",
			sourceID:    1,
			destID:      2,
			amount:      decimal.RequireFromString("150.25"),
			expectError: nil,
		},
		{
			name:        "same account",
			sourceID:    1,
			destID:      1,
			amount:      decimal.NewFromInt(10),
			expectError: ErrSelfTransfer,
		},
		{
			name:        "zero amount",
			sourceID:    1,
			destID:      2,
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			sourceID:    1,
			destID:      2,
			amount:      decimal.NewFromInt(-100),
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &TransferRequest{
				SourceAccountID:      tt.sourceID,
				DestinationAccountID: tt.destID,
				Amount:               tt.amount,
			}

			err := req.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && err != tt.expectError {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestEntry_SignedAmountFor(t *testing.T) {
	source := int64(1)
	entry := &Entry{
		SourceAccountID:      &source,
		DestinationAccountID: 2,
		Amount:               decimal.NewFromInt(150),
		Kind:                 EntryKindTransfer,
	}

	if got := entry.SignedAmountFor(1); !got.Equal(decimal.NewFromInt(-150)) {
		t.Errorf("expected -150 for source, got %s", got)
	}

	if got := entry.SignedAmountFor(2); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected 150 for destination, got %s", got)
	}

	if got := entry.SignedAmountFor(3); !got.Equal(decimal.Zero) {
		t.Errorf("expected 0 for unrelated account, got %s", got)
	}

	deposit := &Entry{
		DestinationAccountID: 2,
		Amount:               decimal.NewFromInt(50),
		Kind:                 EntryKindDeposit,
	}

	if got := deposit.SignedAmountFor(1); !got.Equal(decimal.Zero) {
		t.Errorf("expected 0 for nil source, got %s", got)
	}
}
