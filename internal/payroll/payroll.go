// Package payroll computes shift pay and monthly aggregates with exact decimal arithmetic.
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
	"spa_backend/internal/scheduling"
)

// ErrMissingRateOrHours means a ledger row cannot be computed without silently paying zero.
var ErrMissingRateOrHours = errors.New("missing hourly rate or shift hours")

var sixty = decimal.NewFromInt(60)

// ShiftHours derives the paid hours of a shift from its wall-clock bounds, rounded to two places.
func ShiftHours(start, end string) (decimal.Decimal, error) {
	sh, sm, err := scheduling.ParseClock(start)
	if err != nil {
		return decimal.Zero, err
	}
	eh, em, err := scheduling.ParseClock(end)
	if err != nil {
		return decimal.Zero, err
	}
	minutes := (eh*60 + em) - (sh*60 + sm)
	if minutes <= 0 {
		return decimal.Zero, fmt.Errorf("shift end %s must be after start %s", end, start)
	}
	return decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2), nil
}

// BasePay is rate × hours rounded to two places. A missing or non-positive operand is an error.
func BasePay(rate decimal.NullDecimal, hours decimal.Decimal) (decimal.Decimal, error) {
	if !rate.Valid || !rate.Decimal.IsPositive() || !hours.IsPositive() {
		return decimal.Zero, ErrMissingRateOrHours
	}
	return rate.Decimal.Mul(hours).Round(2), nil
}

// NewLedgerRow builds the unsaved ledger row for a staff member working a shift.
func NewLedgerRow(staff models.StaffMember, shift models.Shift) (models.LedgerRow, error) {
	rate := staff.HourlyRate()
	base, err := BasePay(rate, shift.Hours)
	if err != nil {
		return models.LedgerRow{}, fmt.Errorf("staff %d shift %d: %w", staff.ID, shift.ID, err)
	}
	return models.LedgerRow{
		StaffID:    staff.ID,
		ShiftID:    shift.ID,
		WorkDate:   shift.Date,
		Hours:      shift.Hours,
		HourlyRate: rate.Decimal,
		Base:       base,
		Bonus:      decimal.Zero,
		Deduction:  decimal.Zero,
	}, nil
}

// Sums holds the three aggregate fields of a month.
type Sums struct {
	Base      decimal.Decimal
	Bonus     decimal.Decimal
	Deduction decimal.Decimal
}

// Total is Base + Bonus - Deduction.
func (s Sums) Total() decimal.Decimal {
	return s.Base.Add(s.Bonus).Sub(s.Deduction)
}

// Sum adds up ledger rows.
func Sum(rows []models.LedgerRow) Sums {
	s := Sums{Base: decimal.Zero, Bonus: decimal.Zero, Deduction: decimal.Zero}
	for _, r := range rows {
		s.Base = s.Base.Add(r.Base)
		s.Bonus = s.Bonus.Add(r.Bonus)
		s.Deduction = s.Deduction.Add(r.Deduction)
	}
	return s
}

// Apply overwrites the aggregate fields of p with s and recomputes the total.
func Apply(p *models.MonthlyPayroll, s Sums) {
	p.Base = s.Base
	p.Bonus = s.Bonus
	p.Deduction = s.Deduction
	p.Total = s.Total()
}

// AddBase adds a new ledger row's base into the month and recomputes the total.
func AddBase(p *models.MonthlyPayroll, base decimal.Decimal) {
	p.Base = p.Base.Add(base)
	p.Total = p.Base.Add(p.Bonus).Sub(p.Deduction)
}

// RemoveRow takes a reversed ledger row out of the month.
func RemoveRow(p *models.MonthlyPayroll, row models.LedgerRow) {
	p.Base = p.Base.Sub(row.Base)
	p.Bonus = p.Bonus.Sub(row.Bonus)
	p.Deduction = p.Deduction.Sub(row.Deduction)
	p.Total = p.Base.Add(p.Bonus).Sub(p.Deduction)
}

// ResumAdjustments re-derives bonus and deduction from the rows, keeping base as stored.
func ResumAdjustments(p *models.MonthlyPayroll, rows []models.LedgerRow) {
	s := Sum(rows)
	p.Bonus = s.Bonus
	p.Deduction = s.Deduction
	p.Total = p.Base.Add(p.Bonus).Sub(p.Deduction)
}

// Consistent reports whether total == base + bonus - deduction exactly.
func Consistent(p models.MonthlyPayroll) bool {
	return p.Total.Equal(p.Base.Add(p.Bonus).Sub(p.Deduction))
}
