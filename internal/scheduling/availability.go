package scheduling

import (
	"errors"
	"strings"
	"time"

	"spa_backend/internal/models"
)

var ErrInvalidDuration = errors.New("duration must be positive")

const (
	conflictStartLayout = "15:04 02/01/2006"
	conflictEndLayout   = "15:04"
)

// FindConflicts returns the blocking bookings in existing that overlap proposed.
// The booking with id excludeID is ignored so a booking can be checked against its own staff day when it is edited.
// Display times are rendered in loc.
func FindConflicts(existing []models.Booking, proposed Interval, excludeID int64, loc *time.Location) []models.BookingConflict {
	if loc == nil {
		loc = time.Local
	}
	conflicts := []models.BookingConflict{}
	for _, b := range existing {
		if b.ID == excludeID && excludeID != 0 {
			continue
		}
		if !b.Status.Blocking() {
			continue
		}
		iv := BookingInterval(b)
		if !iv.Overlaps(proposed) {
			continue
		}
		conflicts = append(conflicts, models.BookingConflict{
			BookingID:    b.ID,
			Start:        iv.Start.In(loc).Format(conflictStartLayout),
			End:          iv.End.In(loc).Format(conflictEndLayout),
			CustomerName: b.CustomerName,
			Services:     serviceNames(b.Lines),
			StartsAt:     iv.Start,
			EndsAt:       iv.End,
		})
	}
	return conflicts
}

// CheckAvailability answers whether the proposed interval is free given a staff member's bookings of that day.
// A nil staff id is always available.
func CheckAvailability(staffID *int64, existing []models.Booking, start time.Time, durationMinutes int, excludeID int64, loc *time.Location) (models.AvailabilityResult, error) {
	if durationMinutes <= 0 {
		return models.AvailabilityResult{}, ErrInvalidDuration
	}
	proposed := NewInterval(start, time.Duration(durationMinutes)*time.Minute)
	res := models.AvailabilityResult{
		Available:       true,
		StaffID:         staffID,
		Start:           proposed.Start,
		End:             proposed.End,
		DurationMinutes: durationMinutes,
		Conflicts:       []models.BookingConflict{},
	}
	if staffID == nil {
		return res, nil
	}
	res.Conflicts = FindConflicts(existing, proposed, excludeID, loc)
	res.Available = len(res.Conflicts) == 0
	return res, nil
}

func serviceNames(lines []models.BookingLine) string {
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.ServiceName)
	}
	return strings.Join(names, ", ")
}
