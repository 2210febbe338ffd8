package scheduling

import (
	"errors"
	"fmt"
	"time"

	"spa_backend/internal/models"
)

// CustomerCancelWindow is how long before the start a customer may still cancel.
const CustomerCancelWindow = 4 * time.Hour

var (
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrCancelWindow      = errors.New("bookings cannot be cancelled within 4 hours of the appointment")
)

var transitionMap = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:    {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed:  {models.BookingStatusInProgress, models.BookingStatusCancelled, models.BookingStatusCompleted},
	models.BookingStatusInProgress: {models.BookingStatusCompleted},
}

// ValidTransition reports whether a booking may move from one status to another.
func ValidTransition(from, to models.BookingStatus) bool {
	for _, next := range transitionMap[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition wraps ErrInvalidTransition with the offending statuses.
func CheckTransition(from, to models.BookingStatus) error {
	if !ValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CheckCustomerCancel applies the customer cancellation rules: the transition must be valid
// and the appointment must start more than CustomerCancelWindow after now.
func CheckCustomerCancel(status models.BookingStatus, start, now time.Time) error {
	if err := CheckTransition(status, models.BookingStatusCancelled); err != nil {
		return err
	}
	if start.Sub(now) <= CustomerCancelWindow {
		return ErrCancelWindow
	}
	return nil
}
