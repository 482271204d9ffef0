package planning

import "github.com/pkg/errors"

// Error kinds surfaced by the calculators. All are per-entity and
// recoverable; a batch run must not abort on any of them.
var (
	// ErrNotFound marks a missing settings key or referenced entity
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an illegal lifecycle move
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidationFailed marks a violated constraint, e.g. a negative
	// quantity or an unknown enum value
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnderCapacity marks a packing result that cannot meet the boat's
	// minimum container count; the caller decides to hold or force-ship
	ErrUnderCapacity = errors.New("under boat minimum capacity")
)
