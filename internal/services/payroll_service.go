package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"spa_backend/internal/export"
	"spa_backend/internal/models"
	"spa_backend/internal/payroll"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

// AdjustLedgerRequest DTO. Omitted fields keep their current value.
type AdjustLedgerRequest struct {
	Bonus     *decimal.Decimal `json:"bonus"`
	Deduction *decimal.Decimal `json:"deduction"`
}

// ShiftLedger records and reverses shift pay inside a caller's transaction.
type ShiftLedger interface {
	RecordShiftWorkedTx(ctx context.Context, tx repositories.SQLExecutor, staff *models.StaffMember, shift *models.Shift) (*models.LedgerRow, error)
	ReverseShiftWorkedTx(ctx context.Context, tx repositories.SQLExecutor, staffID int64, shift *models.Shift) error
	ShiftLedgerRowsTx(ctx context.Context, tx repositories.SQLExecutor, shiftID int64) ([]models.LedgerRow, error)
}

// PayrollService maintains the shift ledger and the monthly payroll aggregates.
type PayrollService interface {
	ShiftLedger
	RecordShiftWorked(ctx context.Context, staffID, shiftID int64) (*models.LedgerRow, error)
	ReverseShiftWorked(ctx context.Context, staffID, shiftID int64) error
	RecomputeMonth(ctx context.Context, staffID int64, month, year int) (*models.MonthlyPayroll, error)
	RecomputeAll(ctx context.Context, month, year int) ([]models.MonthlyPayroll, error)
	AdjustLedgerRow(ctx context.Context, rowID int64, req AdjustLedgerRequest) (*models.LedgerRow, error)
	ListMonthly(ctx context.Context, filters models.PayrollFilters) ([]models.MonthlyPayroll, error)
	ListLedger(ctx context.Context, staffID int64, month, year int) ([]models.LedgerRow, error)
	MyPayroll(ctx context.Context, actor models.Actor, year *int) ([]models.MonthlyPayroll, error)
	ExportMonth(ctx context.Context, month, year int, w io.Writer) error
}

type payrollService struct {
	repo      repositories.PayrollRepository
	staffRepo repositories.StaffRepository
	shiftRepo repositories.ShiftRepository
	tx        TxRunner
	locks     Locker
}

// NewPayrollService creates a new instance of PayrollService.
func NewPayrollService(repo repositories.PayrollRepository, staffRepo repositories.StaffRepository, shiftRepo repositories.ShiftRepository, tx TxRunner, locks Locker) PayrollService {
	return &payrollService{repo: repo, staffRepo: staffRepo, shiftRepo: shiftRepo, tx: tx, locks: locks}
}

func validMonth(month, year int) error {
	if month < 1 || month > 12 || year < 2000 || year > 9999 {
		return validationf("invalid month %d/%d", month, year)
	}
	return nil
}

// RecordShiftWorkedTx is idempotent: an existing row for (staff, shift) is returned unchanged.
func (s *payrollService) RecordShiftWorkedTx(ctx context.Context, tx repositories.SQLExecutor, staff *models.StaffMember, shift *models.Shift) (*models.LedgerRow, error) {
	month, year := shift.Month()
	if err := s.locks.LockPayrollMonth(ctx, tx, staff.ID, month, year); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetLedgerRow(ctx, tx, staff.ID, shift.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	row, err := payroll.NewLedgerRow(*staff, *shift)
	if err != nil {
		if errors.Is(err, payroll.ErrMissingRateOrHours) {
			utils.LogError(err, "RecordShiftWorked: cannot compute pay", map[string]interface{}{
				"staff_id": staff.ID,
				"shift_id": shift.ID,
				"hours":    shift.Hours.String(),
				"rate":     staff.HourlyRate(),
			})
			return nil, ErrMissingRateOrHours
		}
		return nil, err
	}

	monthly, err := s.repo.EnsureMonthly(ctx, tx, staff.ID, month, year)
	if err != nil {
		return nil, err
	}
	row.PayrollID = &monthly.ID
	if err := s.repo.InsertLedgerRow(ctx, tx, &row); err != nil {
		return nil, err
	}
	payroll.AddBase(monthly, row.Base)
	if err := s.repo.SaveMonthly(ctx, tx, monthly); err != nil {
		return nil, err
	}
	return &row, nil
}

// ReverseShiftWorkedTx removes the row for (staff, shift) and takes it out of the month. A missing row is not an error.
func (s *payrollService) ReverseShiftWorkedTx(ctx context.Context, tx repositories.SQLExecutor, staffID int64, shift *models.Shift) error {
	month, year := shift.Month()
	if err := s.locks.LockPayrollMonth(ctx, tx, staffID, month, year); err != nil {
		return err
	}
	row, err := s.repo.GetLedgerRow(ctx, tx, staffID, shift.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn("ReverseShiftWorked: no ledger row to reverse", map[string]interface{}{
				"staff_id": staffID,
				"shift_id": shift.ID,
			})
			return nil
		}
		return err
	}
	monthly, err := s.repo.EnsureMonthly(ctx, tx, staffID, month, year)
	if err != nil {
		return err
	}
	payroll.RemoveRow(monthly, *row)
	if err := s.repo.DeleteLedgerRow(ctx, tx, row.ID); err != nil {
		return err
	}
	return s.repo.SaveMonthly(ctx, tx, monthly)
}

func (s *payrollService) loadStaffAndShift(ctx context.Context, tx repositories.SQLExecutor, staffID, shiftID int64) (*models.StaffMember, *models.Shift, error) {
	staff, err := s.staffRepo.GetStaffByID(ctx, tx, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrStaffNotFound
		}
		return nil, nil, err
	}
	shift, err := s.shiftRepo.GetShiftByID(ctx, tx, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrShiftNotFound
		}
		return nil, nil, err
	}
	return staff, shift, nil
}

// ShiftLedgerRowsTx lists every ledger row recorded against a shift, whoever owns it.
func (s *payrollService) ShiftLedgerRowsTx(ctx context.Context, tx repositories.SQLExecutor, shiftID int64) ([]models.LedgerRow, error) {
	return s.repo.ListShiftLedgerRows(ctx, tx, shiftID)
}

// RecordShiftWorked only pays for an existing assignment; rows never outlive the assignment they belong to.
func (s *payrollService) RecordShiftWorked(ctx context.Context, staffID, shiftID int64) (*models.LedgerRow, error) {
	var row *models.LedgerRow
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		staff, shift, err := s.loadStaffAndShift(ctx, tx, staffID, shiftID)
		if err != nil {
			return err
		}
		assigned, err := s.shiftRepo.ListAssignedStaffIDs(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if !slices.Contains(assigned, staffID) {
			return ErrAssignmentNotFound
		}
		row, err = s.RecordShiftWorkedTx(ctx, tx, staff, shift)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *payrollService) ReverseShiftWorked(ctx context.Context, staffID, shiftID int64) error {
	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		shift, err := s.shiftRepo.GetShiftByID(ctx, tx, shiftID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrShiftNotFound
			}
			return err
		}
		return s.ReverseShiftWorkedTx(ctx, tx, staffID, shift)
	})
}

func (s *payrollService) recomputeTx(ctx context.Context, tx repositories.SQLExecutor, staffID int64, month, year int) (*models.MonthlyPayroll, error) {
	if err := s.locks.LockPayrollMonth(ctx, tx, staffID, month, year); err != nil {
		return nil, err
	}
	monthly, err := s.repo.EnsureMonthly(ctx, tx, staffID, month, year)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListLedgerRows(ctx, tx, staffID, month, year)
	if err != nil {
		return nil, err
	}
	payroll.Apply(monthly, payroll.Sum(rows))
	if err := s.repo.SaveMonthly(ctx, tx, monthly); err != nil {
		return nil, err
	}
	return monthly, nil
}

// RecomputeMonth rebuilds the month from its ledger rows.
func (s *payrollService) RecomputeMonth(ctx context.Context, staffID int64, month, year int) (*models.MonthlyPayroll, error) {
	if err := validMonth(month, year); err != nil {
		return nil, err
	}
	var monthly *models.MonthlyPayroll
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.staffRepo.GetStaffByID(ctx, tx, staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrStaffNotFound
			}
			return err
		}
		var err error
		monthly, err = s.recomputeTx(ctx, tx, staffID, month, year)
		return err
	})
	if err != nil {
		return nil, err
	}
	return monthly, nil
}

func (s *payrollService) RecomputeAll(ctx context.Context, month, year int) ([]models.MonthlyPayroll, error) {
	if err := validMonth(month, year); err != nil {
		return nil, err
	}
	var out []models.MonthlyPayroll
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		ids, err := s.repo.ListStaffInMonth(ctx, tx, month, year)
		if err != nil {
			return err
		}
		out = make([]models.MonthlyPayroll, 0, len(ids))
		for _, id := range ids {
			monthly, err := s.recomputeTx(ctx, tx, id, month, year)
			if err != nil {
				return fmt.Errorf("recompute staff %d: %w", id, err)
			}
			out = append(out, *monthly)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("payroll recomputed", map[string]interface{}{"month": month, "year": year, "staff": len(out)})
	return out, nil
}

func (s *payrollService) ledgerRow(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.LedgerRow, error) {
	row, err := s.repo.GetLedgerRowByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLedgerRowNotFound
		}
		return nil, err
	}
	return row, nil
}

// AdjustLedgerRow edits bonus and deduction of one row, then re-sums the month's adjustments from all its rows.
func (s *payrollService) AdjustLedgerRow(ctx context.Context, rowID int64, req AdjustLedgerRequest) (*models.LedgerRow, error) {
	if req.Bonus != nil && req.Bonus.IsNegative() {
		return nil, validationf("bonus cannot be negative")
	}
	if req.Deduction != nil && req.Deduction.IsNegative() {
		return nil, validationf("deduction cannot be negative")
	}
	var row *models.LedgerRow
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		located, err := s.ledgerRow(ctx, tx, rowID)
		if err != nil {
			return err
		}
		// Owner and work date never change, so they pick the lock; the adjustments are read again under it.
		month, year := int(located.WorkDate.Month()), located.WorkDate.Year()
		if err := s.locks.LockPayrollMonth(ctx, tx, located.StaffID, month, year); err != nil {
			return err
		}
		if row, err = s.ledgerRow(ctx, tx, rowID); err != nil {
			return err
		}
		if req.Bonus != nil {
			row.Bonus = req.Bonus.Round(2)
		}
		if req.Deduction != nil {
			row.Deduction = req.Deduction.Round(2)
		}
		if err := s.repo.UpdateLedgerAdjustments(ctx, tx, row.ID, row.Bonus, row.Deduction); err != nil {
			return err
		}
		monthly, err := s.repo.EnsureMonthly(ctx, tx, row.StaffID, month, year)
		if err != nil {
			return err
		}
		rows, err := s.repo.ListLedgerRows(ctx, tx, row.StaffID, month, year)
		if err != nil {
			return err
		}
		payroll.ResumAdjustments(monthly, rows)
		return s.repo.SaveMonthly(ctx, tx, monthly)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *payrollService) ListMonthly(ctx context.Context, filters models.PayrollFilters) ([]models.MonthlyPayroll, error) {
	if filters.Month != nil && (*filters.Month < 1 || *filters.Month > 12) {
		return nil, validationf("invalid month %d", *filters.Month)
	}
	return s.repo.ListMonthly(ctx, filters)
}

func (s *payrollService) ListLedger(ctx context.Context, staffID int64, month, year int) ([]models.LedgerRow, error) {
	if err := validMonth(month, year); err != nil {
		return nil, err
	}
	return s.repo.ListLedgerRows(ctx, nil, staffID, month, year)
}

func (s *payrollService) MyPayroll(ctx context.Context, actor models.Actor, year *int) ([]models.MonthlyPayroll, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if year == nil {
		y := time.Now().Year()
		year = &y
	}
	return s.repo.ListMonthly(ctx, models.PayrollFilters{Year: year, StaffID: &actor.ID})
}

func (s *payrollService) ExportMonth(ctx context.Context, month, year int, w io.Writer) error {
	if err := validMonth(month, year); err != nil {
		return err
	}
	rows, err := s.repo.ListMonthly(ctx, models.PayrollFilters{Month: &month, Year: &year})
	if err != nil {
		return err
	}
	return export.WritePayroll(w, month, year, rows)
}
