package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus defines the type for booking statuses
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// IsValidBookingStatus checks if the provided status string is a valid BookingStatus.
func IsValidBookingStatus(status string) bool {
	switch BookingStatus(status) {
	case BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusInProgress,
		BookingStatusCompleted,
		BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// Blocking reports whether a booking in this status occupies its staff member's time.
func (s BookingStatus) Blocking() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusInProgress
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// BookingLine is one service of a booking, materialized with the service's current data.
type BookingLine struct {
	ServiceID       int64           `json:"service_id"`
	ServiceName     string          `json:"service_name"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
}

// Booking is an appointment of a customer, optionally with an assigned staff member.
type Booking struct {
	ID            int64         `json:"id" db:"id"`
	CustomerID    int64         `json:"customer_id" db:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail *string       `json:"-"`
	StaffID       *int64        `json:"staff_id,omitempty" db:"staff_id"`
	StaffName     *string       `json:"staff_name,omitempty"`
	StartTime     time.Time     `json:"start_time" db:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Status        BookingStatus `json:"status" db:"status"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	Lines         []BookingLine `json:"services"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ServiceIDs returns the ids of the booking's lines in order.
func (b Booking) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(b.Lines))
	for _, l := range b.Lines {
		ids = append(ids, l.ServiceID)
	}
	return ids
}

// BookingFilters defines the available filters for querying bookings.
type BookingFilters struct {
	CustomerID *int64
	StaffID    *int64
	Status     *BookingStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// BookingConflict describes an existing booking that overlaps a proposed one.
type BookingConflict struct {
	BookingID    int64     `json:"booking_id"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	CustomerName string    `json:"customer_name"`
	Services     string    `json:"services"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
}

// AvailabilityResult is the answer of an availability check.
type AvailabilityResult struct {
	Available       bool              `json:"available"`
	StaffID         *int64            `json:"staff_id,omitempty"`
	Start           time.Time         `json:"start"`
	End             time.Time         `json:"end"`
	DurationMinutes int               `json:"duration_minutes"`
	Conflicts       []BookingConflict `json:"conflicts"`
}

// Slot is one cell of the bookable time grid of a day.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// BookingStatistics counts bookings per status in a date range.
type BookingStatistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Confirmed  int `json:"confirmed"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}
