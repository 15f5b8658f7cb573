package bridge

import "errors"

var (
	// ErrStatusUnknown means the current poll produced no information for a
	// record. It is not a user-facing failure, the previous status (or
	// "pending") keeps applying until a later poll resolves.
	ErrStatusUnknown = errors.New("bridge status could not be determined")

	// ErrNotReady guards the prove and finalize actions, the corresponding
	// lifecycle state has not been reached yet.
	ErrNotReady = errors.New("withdrawal is not in an actionable state")

	ErrNonPositiveAmount = errors.New("bridge amount must be positive")
)
