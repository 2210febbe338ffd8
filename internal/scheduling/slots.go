package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotGrid describes the bookable start times of a day.
type SlotGrid struct {
	Open  string
	Close string
	Step  time.Duration
}

// DefaultSlotGrid is used when no slot settings are stored.
var DefaultSlotGrid = SlotGrid{Open: "08:00", Close: "17:30", Step: 30 * time.Minute}

// ParseClock parses a wall-clock "HH:MM" (seconds are tolerated and dropped).
func ParseClock(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// At returns the instant of clock time s on the given local day.
func At(day time.Time, s string, loc *time.Location) (time.Time, error) {
	h, m, err := ParseClock(s)
	if err != nil {
		return time.Time{}, err
	}
	dayStart, _ := DayBounds(day, loc)
	return time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), h, m, 0, 0, dayStart.Location()), nil
}

// Times lists the slot start instants of day, Close included.
func (g SlotGrid) Times(day time.Time, loc *time.Location) ([]time.Time, error) {
	if g.Step <= 0 {
		return nil, fmt.Errorf("slot step must be positive")
	}
	open, err := At(day, g.Open, loc)
	if err != nil {
		return nil, err
	}
	closeAt, err := At(day, g.Close, loc)
	if err != nil {
		return nil, err
	}
	if closeAt.Before(open) {
		return nil, fmt.Errorf("slot close %s is before open %s", g.Close, g.Open)
	}
	var out []time.Time
	for t := open; !t.After(closeAt); t = t.Add(g.Step) {
		out = append(out, t)
	}
	return out, nil
}
