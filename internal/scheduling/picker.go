package scheduling

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// ErrNoStaffAvailable is returned when every candidate is busy.
var ErrNoStaffAvailable = errors.New("no staff available for this slot")

// Strategy orders the candidate pool before the availability scan.
type Strategy string

const (
	StrategyRandom    Strategy = "random"
	StrategyLeastBusy Strategy = "least_busy"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyRandom:
		return StrategyRandom, nil
	case StrategyLeastBusy:
		return StrategyLeastBusy, nil
	}
	return "", fmt.Errorf("unknown auto-assign strategy %q", s)
}

// Candidate is an active technician with the number of non-cancelled bookings already on the day.
type Candidate struct {
	StaffID int64
	Load    int
}

// FreeFunc reports whether a staff member can take the slot being booked.
type FreeFunc func(ctx context.Context, staffID int64) (bool, error)

// Order returns a copy of candidates in scan order.
// Random shuffles with rng (the global source when nil). LeastBusy sorts by ascending load, keeping pool order on ties.
func Order(candidates []Candidate, strategy Strategy, rng *rand.Rand) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	switch strategy {
	case StrategyLeastBusy:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Load < out[j].Load })
	default:
		swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
		if rng != nil {
			rng.Shuffle(len(out), swap)
		} else {
			rand.Shuffle(len(out), swap)
		}
	}
	return out
}

// Pick scans candidates in strategy order and returns the first one isFree accepts.
// It never falls back to a busy or missing staff member.
func Pick(ctx context.Context, candidates []Candidate, strategy Strategy, rng *rand.Rand, isFree FreeFunc) (int64, error) {
	for _, c := range Order(candidates, strategy, rng) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ok, err := isFree(ctx, c.StaffID)
		if err != nil {
			return 0, err
		}
		if ok {
			return c.StaffID, nil
		}
	}
	return 0, ErrNoStaffAvailable
}
