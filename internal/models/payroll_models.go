package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRow is the pay computed for one staff member working one shift.
// Base is fixed at creation; bonus and deduction may be edited afterwards.
type LedgerRow struct {
	ID         int64           `json:"id" db:"id"`
	StaffID    int64           `json:"staff_id" db:"staff_id"`
	ShiftID    int64           `json:"shift_id" db:"shift_id"`
	WorkDate   time.Time       `json:"work_date" db:"work_date"`
	Hours      decimal.Decimal `json:"hours" db:"hours"`
	HourlyRate decimal.Decimal `json:"hourly_rate" db:"hourly_rate"`
	Base       decimal.Decimal `json:"base" db:"base"`
	Bonus      decimal.Decimal `json:"bonus" db:"bonus"`
	Deduction  decimal.Decimal `json:"deduction" db:"deduction"`
	PayrollID  *int64          `json:"payroll_id,omitempty" db:"payroll_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// MonthlyPayroll aggregates a staff member's ledger rows for one calendar month.
// Total always equals Base + Bonus - Deduction.
type MonthlyPayroll struct {
	ID        int64           `json:"id" db:"id"`
	StaffID   int64           `json:"staff_id" db:"staff_id"`
	StaffName string          `json:"staff_name,omitempty"`
	Month     int             `json:"month" db:"month"`
	Year      int             `json:"year" db:"year"`
	Base      decimal.Decimal `json:"base" db:"base"`
	Bonus     decimal.Decimal `json:"bonus" db:"bonus"`
	Deduction decimal.Decimal `json:"deduction" db:"deduction"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// PayrollFilters narrows monthly payroll listings.
type PayrollFilters struct {
	Month   *int
	Year    *int
	StaffID *int64
}
