package usecase

import "time"

const (
	// DefaultLockWait bounds how long a transfer may wait for its two
	// account locks before aborting with domain.ErrLockTimeout.
	DefaultLockWait = 5 * time.Second

	// DefaultPageSize is used when a list request gives no limit.
	DefaultPageSize = 20

	// MaxPageSize caps list requests.
	MaxPageSize = 100
)
