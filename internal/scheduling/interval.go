// Package scheduling holds the booking time arithmetic: interval overlap,
// staff availability, auto-assignment and the booking status machine.
package scheduling

import (
	"time"

	"spa_backend/internal/models"
)

// FallbackDuration is used when a booking's services add up to zero minutes.
const FallbackDuration = 60 * time.Minute

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns the interval starting at start and lasting d.
func NewInterval(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// EffectiveDuration sums the service durations of the lines, or FallbackDuration when that sum is zero.
func EffectiveDuration(lines []models.BookingLine) time.Duration {
	total := 0
	for _, l := range lines {
		if l.DurationMinutes > 0 {
			total += l.DurationMinutes
		}
	}
	if total == 0 {
		return FallbackDuration
	}
	return time.Duration(total) * time.Minute
}

// BookingInterval is the time a booking occupies.
func BookingInterval(b models.Booking) Interval {
	return NewInterval(b.StartTime, EffectiveDuration(b.Lines))
}

// DayBounds returns the local calendar day containing t as [00:00, next 00:00).
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
