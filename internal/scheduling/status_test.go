package scheduling

import (
	"errors"
	"testing"
	"time"

	"spa_backend/internal/models"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
		want     bool
	}{
		{models.BookingStatusPending, models.BookingStatusConfirmed, true},
		{models.BookingStatusPending, models.BookingStatusCancelled, true},
		{models.BookingStatusPending, models.BookingStatusInProgress, false},
		{models.BookingStatusConfirmed, models.BookingStatusInProgress, true},
		{models.BookingStatusConfirmed, models.BookingStatusCompleted, true},
		{models.BookingStatusConfirmed, models.BookingStatusCancelled, true},
		{models.BookingStatusInProgress, models.BookingStatusCompleted, true},
		{models.BookingStatusInProgress, models.BookingStatusCancelled, false},
		{models.BookingStatusCompleted, models.BookingStatusCancelled, false},
		{models.BookingStatusCancelled, models.BookingStatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCheckCustomerCancel(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, hcm)

	if err := CheckCustomerCancel(models.BookingStatusConfirmed, now.Add(3*time.Hour), now); !errors.Is(err, ErrCancelWindow) {
		t.Fatalf("expected ErrCancelWindow for 3h, got %v", err)
	}
	if err := CheckCustomerCancel(models.BookingStatusConfirmed, now.Add(4*time.Hour), now); !errors.Is(err, ErrCancelWindow) {
		t.Fatalf("expected ErrCancelWindow at exactly 4h, got %v", err)
	}
	if err := CheckCustomerCancel(models.BookingStatusConfirmed, now.Add(5*time.Hour), now); err != nil {
		t.Fatalf("expected cancel to be allowed for 5h, got %v", err)
	}
	if err := CheckCustomerCancel(models.BookingStatusInProgress, now.Add(5*time.Hour), now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
