package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JobTitle carries the hourly pay rate of the staff holding it.
type JobTitle struct {
	ID          int64               `json:"id" db:"id"`
	Name        string              `json:"name" db:"name"`
	Description *string             `json:"description,omitempty" db:"description"`
	HourlyRate  decimal.NullDecimal `json:"hourly_rate" db:"hourly_rate"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// StaffMember represents an employee. Staff are deactivated, never deleted.
type StaffMember struct {
	ID           int64     `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Username     string    `json:"username" db:"username"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PhoneNumber  *string   `json:"phone_number,omitempty" db:"phone_number"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	JobTitleID   *int64    `json:"job_title_id,omitempty" db:"job_title_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	JobTitle     *JobTitle `json:"job_title,omitempty"`
}

// HourlyRate returns the rate of the staff member's job title, if any.
func (s StaffMember) HourlyRate() decimal.NullDecimal {
	if s.JobTitle == nil {
		return decimal.NullDecimal{}
	}
	return s.JobTitle.HourlyRate
}

// StaffFilters narrows staff listings.
type StaffFilters struct {
	Role       *Role
	ActiveOnly bool
	Search     string
}

// StaffRef is the short form of a staff member embedded in other payloads.
type StaffRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// Shift is a work period on one calendar date. Times are wall-clock "HH:MM".
type Shift struct {
	ID        int64           `json:"id" db:"id"`
	Date      time.Time       `json:"date" db:"shift_date"`
	StartTime string          `json:"start_time" db:"start_time"`
	EndTime   string          `json:"end_time" db:"end_time"`
	Hours     decimal.Decimal `json:"hours" db:"hours"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	Staff     []StaffRef      `json:"staff,omitempty"`
}

// Month returns the calendar month and year the shift belongs to.
func (s Shift) Month() (int, int) {
	return int(s.Date.Month()), s.Date.Year()
}

// Label renders the shift for notifications, e.g. "08:00-16:00 05/03/2024".
func (s Shift) Label() string {
	return fmt.Sprintf("%s-%s %s", s.StartTime, s.EndTime, s.Date.Format("02/01/2006"))
}

// RegistrationStatus is the review state of a shift registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// ShiftRegistration is a staff member's request to work a shift.
type ShiftRegistration struct {
	ID        int64              `json:"id" db:"id"`
	ShiftID   int64              `json:"shift_id" db:"shift_id"`
	StaffID   int64              `json:"staff_id" db:"staff_id"`
	StaffName string             `json:"staff_name"`
	Status    RegistrationStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
	Shift     *Shift             `json:"shift,omitempty"`
}
