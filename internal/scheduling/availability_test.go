package scheduling

import (
	"testing"
	"time"

	"spa_backend/internal/models"
)

var hcm = time.FixedZone("ICT", 7*3600)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 5, h, m, 0, 0, hcm)
}

func confirmedBooking(id int64, start time.Time, minutes ...int) models.Booking {
	b := models.Booking{ID: id, StartTime: start, Status: models.BookingStatusConfirmed, CustomerName: "Lan"}
	for i, m := range minutes {
		b.Lines = append(b.Lines, models.BookingLine{ServiceID: int64(i + 1), ServiceName: "Massage", DurationMinutes: m})
	}
	return b
}

func TestOverlapSymmetry(t *testing.T) {
	base := at(10, 0)
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", NewInterval(base, time.Hour), NewInterval(base, time.Hour), true},
		{"partial", NewInterval(base, time.Hour), NewInterval(base.Add(30*time.Minute), time.Hour), true},
		{"contained", NewInterval(base, 3*time.Hour), NewInterval(base.Add(time.Hour), time.Minute), true},
		{"back to back", NewInterval(base, time.Hour), NewInterval(base.Add(time.Hour), time.Hour), false},
		{"disjoint", NewInterval(base, time.Hour), NewInterval(base.Add(2*time.Hour), time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("b.Overlaps(a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEffectiveDurationFallback(t *testing.T) {
	if got := EffectiveDuration(nil); got != FallbackDuration {
		t.Fatalf("expected fallback, got %v", got)
	}
	lines := []models.BookingLine{{DurationMinutes: 0}, {DurationMinutes: 0}}
	if got := EffectiveDuration(lines); got != 60*time.Minute {
		t.Fatalf("expected 60m for zero-minute lines, got %v", got)
	}
	lines = []models.BookingLine{{DurationMinutes: 45}, {DurationMinutes: 30}}
	if got := EffectiveDuration(lines); got != 75*time.Minute {
		t.Fatalf("expected 75m, got %v", got)
	}
}

func TestCheckAvailabilityScenario(t *testing.T) {
	staff := int64(7)
	existing := []models.Booking{confirmedBooking(11, at(10, 0), 60)}

	res, err := CheckAvailability(&staff, existing, at(10, 30), 30, 0, hcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Available {
		t.Fatalf("expected conflict at 10:30")
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.BookingID != 11 || c.Start != "10:00 05/03/2024" || c.End != "11:00" {
		t.Fatalf("unexpected conflict %+v", c)
	}
	if c.CustomerName != "Lan" || c.Services != "Massage" {
		t.Fatalf("unexpected conflict details %+v", c)
	}

	res, err = CheckAvailability(&staff, existing, at(11, 0), 30, 0, hcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Available || len(res.Conflicts) != 0 {
		t.Fatalf("expected 11:00 to be free, got %+v", res)
	}
}

func TestCheckAvailabilityIgnoresNonBlockingAndExcluded(t *testing.T) {
	staff := int64(7)
	cancelled := confirmedBooking(1, at(9, 0), 120)
	cancelled.Status = models.BookingStatusCancelled
	completed := confirmedBooking(2, at(9, 0), 120)
	completed.Status = models.BookingStatusCompleted
	self := confirmedBooking(3, at(9, 30), 60)

	res, err := CheckAvailability(&staff, []models.Booking{cancelled, completed, self}, at(9, 30), 60, 3, hcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Available {
		t.Fatalf("expected available, got conflicts %+v", res.Conflicts)
	}
}

func TestCheckAvailabilityNilStaff(t *testing.T) {
	existing := []models.Booking{confirmedBooking(1, at(10, 0), 60)}
	res, err := CheckAvailability(nil, existing, at(10, 0), 60, 0, hcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Available || len(res.Conflicts) != 0 {
		t.Fatalf("nil staff must always be available")
	}
}

func TestCheckAvailabilityRejectsNonPositiveDuration(t *testing.T) {
	staff := int64(1)
	if _, err := CheckAvailability(&staff, nil, at(10, 0), 0, 0, hcm); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC), hcm)
	if !start.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, hcm)) {
		t.Fatalf("unexpected start %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("unexpected day length %v", end.Sub(start))
	}
}
