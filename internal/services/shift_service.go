package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"spa_backend/internal/models"
	"spa_backend/internal/payroll"
	"spa_backend/internal/repositories"
)

const dateLayout = "2006-01-02"

// ShiftInput DTO. Date is YYYY-MM-DD, times are HH:MM.
type ShiftInput struct {
	Date      string  `json:"date" binding:"required"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	Notes     *string `json:"notes"`
}

// ShiftService manages shifts, assignments and registrations. Every assignment change
// moves the staff member's pay in the same transaction.
type ShiftService interface {
	CreateShifts(ctx context.Context, inputs []ShiftInput) ([]models.Shift, error)
	UpdateShift(ctx context.Context, id int64, input ShiftInput) (*models.Shift, error)
	DeleteShift(ctx context.Context, id int64) error
	ListShifts(ctx context.Context, from, to time.Time) ([]models.Shift, error)
	GetShift(ctx context.Context, id int64) (*models.Shift, error)

	AssignShift(ctx context.Context, shiftID, staffID int64) (*models.Shift, error)
	UnassignShift(ctx context.Context, shiftID, staffID int64) error

	RegisterForShifts(ctx context.Context, actor models.Actor, shiftIDs []int64) ([]models.ShiftRegistration, error)
	ListRegistrations(ctx context.Context, status *models.RegistrationStatus) ([]models.ShiftRegistration, error)
	ApproveRegistration(ctx context.Context, id int64) (*models.ShiftRegistration, error)
	RejectRegistration(ctx context.Context, id int64) (*models.ShiftRegistration, error)

	MyShifts(ctx context.Context, actor models.Actor, from, to time.Time) ([]models.Shift, error)
	Schedule(ctx context.Context, from, to time.Time) ([]models.Shift, error)
}

type shiftService struct {
	repo      repositories.ShiftRepository
	staffRepo repositories.StaffRepository
	ledger    ShiftLedger
	tx        TxRunner
	notify    notifier
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(repo repositories.ShiftRepository, staffRepo repositories.StaffRepository, ledger ShiftLedger, tx TxRunner, outbox repositories.NotificationRepository) ShiftService {
	return &shiftService{repo: repo, staffRepo: staffRepo, ledger: ledger, tx: tx, notify: notifier{outbox: outbox}}
}

func (in ShiftInput) toShift() (*models.Shift, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return nil, validationf("invalid date %q, expected YYYY-MM-DD", in.Date)
	}
	hours, err := payroll.ShiftHours(in.StartTime, in.EndTime)
	if err != nil {
		return nil, validationf("%v", err)
	}
	return &models.Shift{
		Date:      date,
		StartTime: strings.TrimSpace(in.StartTime),
		EndTime:   strings.TrimSpace(in.EndTime),
		Hours:     hours,
		Notes:     in.Notes,
	}, nil
}

func (s *shiftService) CreateShifts(ctx context.Context, inputs []ShiftInput) ([]models.Shift, error) {
	if len(inputs) == 0 {
		return nil, validationf("at least one shift is required")
	}
	shifts := make([]*models.Shift, 0, len(inputs))
	for i, in := range inputs {
		sh, err := in.toShift()
		if err != nil {
			return nil, fmt.Errorf("shift %d: %w", i+1, err)
		}
		shifts = append(shifts, sh)
	}
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		for _, sh := range shifts {
			if err := s.repo.CreateShift(ctx, tx, sh); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Shift, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, *sh)
	}
	return out, nil
}

func (s *shiftService) getShift(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.Shift, error) {
	sh, err := s.repo.GetShiftByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return sh, nil
}

// paidStaffIDs returns everyone assigned to the shift or holding a ledger row for it, in first-seen order.
func (s *shiftService) paidStaffIDs(ctx context.Context, tx repositories.SQLExecutor, shiftID int64) ([]int64, error) {
	ids, err := s.repo.ListAssignedStaffIDs(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.ShiftLedgerRowsTx(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if !slices.Contains(ids, row.StaffID) {
			ids = append(ids, row.StaffID)
		}
	}
	return ids, nil
}

// UpdateShift refuses to move pay that has already been recorded: with staff assigned
// or ledger rows present, the date and hours are frozen.
func (s *shiftService) UpdateShift(ctx context.Context, id int64, input ShiftInput) (*models.Shift, error) {
	next, err := input.toShift()
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		cur, err := s.getShift(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Date.Equal(next.Date) || !cur.Hours.Equal(next.Hours) {
			paid, err := s.paidStaffIDs(ctx, tx, id)
			if err != nil {
				return err
			}
			if len(paid) > 0 {
				return ErrShiftHasLedger
			}
		}
		next.ID = id
		return s.repo.UpdateShift(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}
	return s.GetShift(ctx, id)
}

// DeleteShift reverses every ledger row of the shift before the cascade removes assignments and registrations.
func (s *shiftService) DeleteShift(ctx context.Context, id int64) error {
	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		sh, err := s.getShift(ctx, tx, id)
		if err != nil {
			return err
		}
		ids, err := s.paidStaffIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, staffID := range ids {
			if err := s.ledger.ReverseShiftWorkedTx(ctx, tx, staffID, sh); err != nil {
				return err
			}
		}
		return s.repo.DeleteShift(ctx, tx, id)
	})
}

func (s *shiftService) ListShifts(ctx context.Context, from, to time.Time) ([]models.Shift, error) {
	if to.Before(from) {
		return nil, validationf("end date must not be before start date")
	}
	return s.repo.ListShifts(ctx, from, to.AddDate(0, 0, 1), nil)
}

func (s *shiftService) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	return s.getShift(ctx, nil, id)
}

// assignTx assigns and records pay. tolerateDuplicate lets an approval land on an existing assignment.
func (s *shiftService) assignTx(ctx context.Context, tx repositories.SQLExecutor, sh *models.Shift, staffID int64, tolerateDuplicate bool) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffByID(ctx, tx, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !staff.IsActive {
		return nil, newError(ErrValidation, "staff member is inactive")
	}
	if err := s.repo.AssignStaff(ctx, tx, sh.ID, staffID); err != nil {
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, err
		}
		if !tolerateDuplicate {
			return nil, ErrShiftAlreadyAssigned
		}
	}
	if _, err := s.ledger.RecordShiftWorkedTx(ctx, tx, staff, sh); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *shiftService) notifyAssigned(ctx context.Context, staff *models.StaffMember, sh *models.Shift) {
	s.notify.enqueue(ctx, models.NotificationShiftAssigned, staff.Email, map[string]interface{}{
		"staff_name": staff.FullName,
		"shift_id":   sh.ID,
		"shift":      sh.Label(),
	})
}

func (s *shiftService) AssignShift(ctx context.Context, shiftID, staffID int64) (*models.Shift, error) {
	var (
		staff *models.StaffMember
		sh    *models.Shift
	)
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if sh, err = s.getShift(ctx, tx, shiftID); err != nil {
			return err
		}
		staff, err = s.assignTx(ctx, tx, sh, staffID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyAssigned(ctx, staff, sh)
	return s.GetShift(ctx, shiftID)
}

func (s *shiftService) UnassignShift(ctx context.Context, shiftID, staffID int64) error {
	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		sh, err := s.getShift(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if err := s.ledger.ReverseShiftWorkedTx(ctx, tx, staffID, sh); err != nil {
			return err
		}
		if err := s.repo.UnassignStaff(ctx, tx, shiftID, staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		return nil
	})
}

// RegisterForShifts returns the registrations created; shifts already requested are skipped.
func (s *shiftService) RegisterForShifts(ctx context.Context, actor models.Actor, shiftIDs []int64) ([]models.ShiftRegistration, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if len(shiftIDs) == 0 {
		return nil, validationf("at least one shift is required")
	}
	created := []models.ShiftRegistration{}
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		seen := make(map[int64]bool, len(shiftIDs))
		for _, id := range shiftIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, err := s.getShift(ctx, tx, id); err != nil {
				return err
			}
			reg := &models.ShiftRegistration{ShiftID: id, StaffID: actor.ID, Status: models.RegistrationPending}
			ok, err := s.repo.CreateRegistration(ctx, tx, reg)
			if err != nil {
				return err
			}
			if ok {
				created = append(created, *reg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *shiftService) ListRegistrations(ctx context.Context, status *models.RegistrationStatus) ([]models.ShiftRegistration, error) {
	return s.repo.ListRegistrations(ctx, status, nil)
}

func (s *shiftService) reviewTx(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.ShiftRegistration, error) {
	reg, err := s.repo.GetRegistrationByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.Status != models.RegistrationPending {
		return nil, ErrRegistrationNotPending
	}
	return reg, nil
}

func (s *shiftService) ApproveRegistration(ctx context.Context, id int64) (*models.ShiftRegistration, error) {
	var (
		reg   *models.ShiftRegistration
		staff *models.StaffMember
		sh    *models.Shift
	)
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if reg, err = s.reviewTx(ctx, tx, id); err != nil {
			return err
		}
		if sh, err = s.getShift(ctx, tx, reg.ShiftID); err != nil {
			return err
		}
		if staff, err = s.assignTx(ctx, tx, sh, reg.StaffID, true); err != nil {
			return err
		}
		reg.Status = models.RegistrationApproved
		return s.repo.UpdateRegistrationStatus(ctx, tx, id, models.RegistrationApproved)
	})
	if err != nil {
		return nil, err
	}
	s.notifyAssigned(ctx, staff, sh)
	reg.Shift = sh
	return reg, nil
}

func (s *shiftService) RejectRegistration(ctx context.Context, id int64) (*models.ShiftRegistration, error) {
	var reg *models.ShiftRegistration
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if reg, err = s.reviewTx(ctx, tx, id); err != nil {
			return err
		}
		reg.Status = models.RegistrationRejected
		return s.repo.UpdateRegistrationStatus(ctx, tx, id, models.RegistrationRejected)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *shiftService) MyShifts(ctx context.Context, actor models.Actor, from, to time.Time) ([]models.Shift, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if to.Before(from) {
		return nil, validationf("end date must not be before start date")
	}
	return s.repo.ListShifts(ctx, from, to.AddDate(0, 0, 1), &actor.ID)
}

// Schedule is the week/month calendar view: every shift in range with its assigned staff.
func (s *shiftService) Schedule(ctx context.Context, from, to time.Time) ([]models.Shift, error) {
	if to.Before(from) {
		return nil, validationf("end date must not be before start date")
	}
	if to.Sub(from) > 62*24*time.Hour {
		return nil, validationf("schedule range is limited to two months")
	}
	return s.repo.ListShifts(ctx, from, to.AddDate(0, 0, 1), nil)
}
