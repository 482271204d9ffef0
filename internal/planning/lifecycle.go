package planning

import (
	"time"

	"github.com/pkg/errors"

	"example.com/tileflow/services/planning/internal/models"
)

// StateRank orders lifecycle states. Transitions are strictly forward;
// skipping states is allowed, moving backward is not.
var StateRank = map[string]int{
	models.ShipmentAtFactory:         0,
	models.ShipmentAtOriginPort:      1,
	models.ShipmentInTransit:         2,
	models.ShipmentAtDestinationPort: 3,
	models.ShipmentInCustoms:         4,
	models.ShipmentInTruck:           5,
	models.ShipmentDelivered:         6,
}

// ValidateTransition checks a lifecycle move. DELIVERED is terminal.
// Corrections to history are appended as out-of-order events and never go
// through this check.
func ValidateTransition(current, next string) error {
	curRank, ok := StateRank[current]
	if !ok {
		return errors.Wrapf(ErrValidationFailed, "unknown shipment status %q", current)
	}
	nextRank, ok := StateRank[next]
	if !ok {
		return errors.Wrapf(ErrValidationFailed, "unknown shipment status %q", next)
	}
	if current == models.ShipmentDelivered {
		return errors.Wrapf(ErrInvalidTransition, "%s is terminal", models.ShipmentDelivered)
	}
	if nextRank <= curRank {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s moves backward", current, next)
	}
	return nil
}

// AtOrPast reports whether a status has reached the given state
func AtOrPast(status, state string) bool {
	s, ok1 := StateRank[status]
	t, ok2 := StateRank[state]
	return ok1 && ok2 && s >= t
}

// FreeDaysExpiry derives the date storage fees start: actual arrival plus
// the shipment's free days.
func FreeDaysExpiry(actualArrival time.Time, freeDays int) time.Time {
	return actualArrival.AddDate(0, 0, freeDays)
}

// BookingDeadline derives the boat's booking cutoff: departure minus the
// configured buffer. Informational, not enforced as a hard constraint.
func BookingDeadline(departure time.Time, bufferDays int) time.Time {
	return departure.AddDate(0, 0, -bufferDays)
}

// DaysBetween is whole days from a to b, negative when b precedes a
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
