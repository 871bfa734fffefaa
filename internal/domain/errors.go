package domain

import "errors"

var (
	// Transfer errors
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimal places")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrSourceNotFound      = errors.New("source account not found")
	ErrDestinationNotFound = errors.New("destination account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")

	// Store errors
	ErrNegativeBalance         = errors.New("balance would become negative")
	ErrLockTimeout             = errors.New("could not acquire account locks in time")
	ErrStorageFailure          = errors.New("storage failure")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountClosed          = errors.New("account is closed")
	ErrAccountNotEmpty        = errors.New("account balance must be zero before closing")
	ErrAccountNumberTaken     = errors.New("account number already exists")
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrNegativeSeedBalance    = errors.New("seed balance cannot be negative")
	ErrNoUpdatableFieldsGiven = errors.New("no updatable fields given")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
