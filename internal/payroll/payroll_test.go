package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func technician(rate string) models.StaffMember {
	s := models.StaffMember{ID: 5, Role: models.RoleTechnician}
	if rate != "" {
		s.JobTitle = &models.JobTitle{HourlyRate: decimal.NewNullDecimal(d(rate))}
	}
	return s
}

func march5Shift(hours string) models.Shift {
	return models.Shift{ID: 9, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), StartTime: "08:00", EndTime: "16:00", Hours: d(hours)}
}

func TestShiftHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       string
		wantErr    bool
	}{
		{"08:00", "16:00", "8", false},
		{"08:00", "12:20", "4.33", false},
		{"09:15", "09:45", "0.5", false},
		{"10:00", "10:00", "", true},
		{"18:00", "08:00", "", true},
		{"bad", "08:00", "", true},
	}
	for _, tc := range cases {
		got, err := ShiftHours(tc.start, tc.end)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ShiftHours(%s, %s): expected error", tc.start, tc.end)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ShiftHours(%s, %s): %v", tc.start, tc.end, err)
		}
		if !got.Equal(d(tc.want)) {
			t.Fatalf("ShiftHours(%s, %s) = %s, want %s", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestNewLedgerRowScenario(t *testing.T) {
	row, err := NewLedgerRow(technician("50000"), march5Shift("8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Base.Equal(d("400000")) {
		t.Fatalf("expected base 400000, got %s", row.Base)
	}
	if row.StaffID != 5 || row.ShiftID != 9 || !row.Bonus.IsZero() || !row.Deduction.IsZero() {
		t.Fatalf("unexpected row %+v", row)
	}

	p := models.MonthlyPayroll{Month: 3, Year: 2024}
	AddBase(&p, row.Base)
	if !p.Base.Equal(d("400000")) || !p.Total.Equal(d("400000")) {
		t.Fatalf("unexpected month %+v", p)
	}
}

func TestNewLedgerRowMissingRateOrHours(t *testing.T) {
	cases := []struct {
		name  string
		staff models.StaffMember
		shift models.Shift
	}{
		{"no job title", technician(""), march5Shift("8")},
		{"zero rate", technician("0"), march5Shift("8")},
		{"null rate", models.StaffMember{ID: 1, JobTitle: &models.JobTitle{}}, march5Shift("8")},
		{"zero hours", technician("50000"), march5Shift("0")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLedgerRow(tc.staff, tc.shift); !errors.Is(err, ErrMissingRateOrHours) {
				t.Fatalf("expected ErrMissingRateOrHours, got %v", err)
			}
		})
	}
}

func TestBasePayIsExact(t *testing.T) {
	got, err := BasePay(decimal.NewNullDecimal(d("33333.33")), d("7.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d("249999.98")) {
		t.Fatalf("expected 249999.98, got %s", got)
	}
}

func TestRecordThenReverseRestoresMonth(t *testing.T) {
	p := models.MonthlyPayroll{Base: d("100000"), Bonus: d("20000"), Deduction: d("5000")}
	p.Total = d("115000")
	before := p

	row, err := NewLedgerRow(technician("45000.50"), march5Shift("7.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AddBase(&p, row.Base)
	RemoveRow(&p, row)

	if !p.Base.Equal(before.Base) || !p.Total.Equal(before.Total) {
		t.Fatalf("month not restored: got %+v want %+v", p, before)
	}
	if !Consistent(p) {
		t.Fatalf("aggregate invariant broken: %+v", p)
	}
}

func TestResumAdjustmentsKeepsBase(t *testing.T) {
	rows := []models.LedgerRow{
		{Base: d("400000"), Bonus: d("50000"), Deduction: d("0")},
		{Base: d("300000"), Bonus: d("0"), Deduction: d("25000.5")},
	}
	p := models.MonthlyPayroll{Base: d("700000"), Bonus: d("999"), Deduction: d("1")}
	ResumAdjustments(&p, rows)
	if !p.Bonus.Equal(d("50000")) || !p.Deduction.Equal(d("25000.5")) {
		t.Fatalf("unexpected adjustments %+v", p)
	}
	if !p.Total.Equal(d("724999.5")) || !Consistent(p) {
		t.Fatalf("unexpected total %s", p.Total)
	}
}

func TestApplyFullRebuild(t *testing.T) {
	rows := []models.LedgerRow{
		{Base: d("0.1"), Bonus: d("0.2"), Deduction: d("0.3")},
		{Base: d("0.2"), Bonus: d("0.1"), Deduction: d("0")},
	}
	var p models.MonthlyPayroll
	Apply(&p, Sum(rows))
	if !p.Total.Equal(d("0.3")) {
		t.Fatalf("expected exact 0.3, got %s", p.Total)
	}
	Apply(&p, Sum(nil))
	if !p.Total.IsZero() || !Consistent(p) {
		t.Fatalf("expected zero month, got %+v", p)
	}
}
