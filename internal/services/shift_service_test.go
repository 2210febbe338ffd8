package services

import (
	"context"
	"errors"
	"testing"

	"spa_backend/internal/models"
)

type shiftFixture struct {
	svc     *shiftService
	ledger  PayrollService
	shifts  *fakeShiftRepo
	payroll *fakePayrollRepo
	outbox  *fakeOutbox
}

// newShiftFixture wires the shift service to a real payroll service over fake storage.
func newShiftFixture() shiftFixture {
	shifts := newFakeShiftRepo(eightHourShift(1, 5), eightHourShift(2, 6))
	inactive := technician(12, "50000")
	inactive.IsActive = false
	staff := &fakeStaffRepo{staff: map[int64]models.StaffMember{
		10: technician(10, "50000"),
		11: technician(11, ""),
		12: inactive,
	}}
	payrollRepo := newFakePayrollRepo()
	shifts.ledger = payrollRepo
	tx := &fakeTx{stores: []txStore{shifts, payrollRepo}}
	ledger := NewPayrollService(payrollRepo, staff, shifts, tx, tx)
	outbox := &fakeOutbox{}
	svc := NewShiftService(shifts, staff, ledger, tx, outbox).(*shiftService)
	return shiftFixture{svc: svc, ledger: ledger, shifts: shifts, payroll: payrollRepo, outbox: outbox}
}

func TestAssignShiftRecordsPay(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()

	if _, err := f.svc.AssignShift(ctx, 1, 10); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !f.shifts.assigned[assignment{1, 10}] {
		t.Fatalf("assignment not stored")
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "400000", "0", "0", "400000")
	if kinds := f.outbox.kinds(); len(kinds) != 1 || kinds[0] != models.NotificationShiftAssigned {
		t.Fatalf("expected shift notification, got %v", kinds)
	}

	if _, err := f.svc.AssignShift(ctx, 1, 10); !errors.Is(err, ErrShiftAlreadyAssigned) {
		t.Fatalf("expected ErrShiftAlreadyAssigned, got %v", err)
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "400000", "0", "0", "400000")
}

func TestAssignShiftErrors(t *testing.T) {
	tests := []struct {
		name    string
		shiftID int64
		staffID int64
		wantErr error
	}{
		{name: "unknown shift", shiftID: 99, staffID: 10, wantErr: ErrShiftNotFound},
		{name: "unknown staff", shiftID: 1, staffID: 99, wantErr: ErrStaffNotFound},
		{name: "inactive staff", shiftID: 1, staffID: 12, wantErr: ErrValidation},
		{name: "no hourly rate", shiftID: 1, staffID: 11, wantErr: ErrMissingRateOrHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newShiftFixture()
			if _, err := f.svc.AssignShift(context.Background(), tt.shiftID, tt.staffID); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.outbox.events) != 0 {
				t.Fatalf("failed assignment must not notify")
			}
			if len(f.shifts.assigned) != 0 || len(f.payroll.rows) != 0 || len(f.payroll.monthly) != 0 {
				t.Fatalf("failed assignment must leave nothing behind: assigned %v rows %d months %d",
					f.shifts.assigned, len(f.payroll.rows), len(f.payroll.monthly))
			}
		})
	}
}

func TestUnassignShiftReversesPay(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if _, err := f.svc.AssignShift(ctx, id, 10); err != nil {
			t.Fatalf("assign %d: %v", id, err)
		}
	}
	if err := f.svc.UnassignShift(ctx, 2, 10); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "400000", "0", "0", "400000")
	if f.shifts.assigned[assignment{2, 10}] {
		t.Fatalf("assignment must be removed")
	}
	if err := f.svc.UnassignShift(ctx, 2, 10); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestShiftRegistrationReview(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()
	tech := models.Actor{Kind: models.PrincipalStaff, ID: 10, Role: models.RoleTechnician}

	regs, err := f.svc.RegisterForShifts(ctx, tech, []int64{1, 2, 1})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(regs))
	}
	again, err := f.svc.RegisterForShifts(ctx, tech, []int64{1})
	if err != nil || len(again) != 0 {
		t.Fatalf("repeat registration must be skipped: %v %v", again, err)
	}

	// Shift 1 was assigned directly before the approval lands.
	if _, err := f.svc.AssignShift(ctx, 1, 10); err != nil {
		t.Fatalf("assign: %v", err)
	}
	approved, err := f.svc.ApproveRegistration(ctx, regs[0].ID)
	if err != nil {
		t.Fatalf("approve over existing assignment: %v", err)
	}
	if approved.Status != models.RegistrationApproved || approved.Shift == nil {
		t.Fatalf("unexpected approval: %+v", approved)
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "400000", "0", "0", "400000")

	rejected, err := f.svc.RejectRegistration(ctx, regs[1].ID)
	if err != nil || rejected.Status != models.RegistrationRejected {
		t.Fatalf("reject: %+v %v", rejected, err)
	}
	if _, err := f.svc.ApproveRegistration(ctx, regs[1].ID); !errors.Is(err, ErrRegistrationNotPending) {
		t.Fatalf("expected ErrRegistrationNotPending, got %v", err)
	}
	if _, err := f.svc.RejectRegistration(ctx, regs[0].ID); !errors.Is(err, ErrRegistrationNotPending) {
		t.Fatalf("expected ErrRegistrationNotPending, got %v", err)
	}
	if _, err := f.svc.RejectRegistration(ctx, 99); !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
	}

	customer := models.Actor{Kind: models.PrincipalCustomer, ID: 1}
	if _, err := f.svc.RegisterForShifts(ctx, customer, []int64{1}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateShiftsValidatesEveryInput(t *testing.T) {
	f := newShiftFixture()
	_, err := f.svc.CreateShifts(context.Background(), []ShiftInput{
		{Date: "2024-03-07", StartTime: "08:00", EndTime: "16:00"},
		{Date: "07/03/2024", StartTime: "08:00", EndTime: "16:00"},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.shifts.shifts) != 2 {
		t.Fatalf("no shift may be created when one input is invalid")
	}

	created, err := f.svc.CreateShifts(context.Background(), []ShiftInput{
		{Date: "2024-03-07", StartTime: "08:00", EndTime: "12:30"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 1 || !created[0].Hours.Equal(dec("4.5")) {
		t.Fatalf("unexpected shifts: %+v", created)
	}
}

func TestShiftLedgerRowsFreezeShift(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()

	if _, err := f.ledger.RecordShiftWorked(ctx, 10, 1); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("recording an unassigned shift: expected ErrAssignmentNotFound, got %v", err)
	}
	if len(f.payroll.rows) != 0 {
		t.Fatalf("no ledger row may exist without an assignment")
	}

	// A row left behind without its assignment, as older data may hold.
	sh := eightHourShift(1, 5)
	staff := technician(10, "50000")
	if _, err := f.ledger.RecordShiftWorkedTx(ctx, nil, &staff, &sh); err != nil {
		t.Fatalf("seed row: %v", err)
	}

	moved := ShiftInput{Date: "2024-04-05", StartTime: "08:00", EndTime: "12:00"}
	if _, err := f.svc.UpdateShift(ctx, 1, moved); !errors.Is(err, ErrShiftHasLedger) {
		t.Fatalf("expected ErrShiftHasLedger, got %v", err)
	}
	if got := f.shifts.shifts[1]; !got.Hours.Equal(dec("8")) || got.Date.Month() != 3 {
		t.Fatalf("shift must be unchanged, got %+v", got)
	}

	notes := ShiftInput{Date: "2024-03-05", StartTime: "08:00", EndTime: "16:00", Notes: ptr("front door")}
	if _, err := f.svc.UpdateShift(ctx, 1, notes); err != nil {
		t.Fatalf("notes-only edit: %v", err)
	}

	if err := f.svc.DeleteShift(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.payroll.rows) != 0 {
		t.Fatalf("delete must reverse every ledger row of the shift")
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "0", "0", "0", "0")
	if _, ok := f.shifts.shifts[1]; ok {
		t.Fatalf("shift must be gone")
	}
}

func TestUpdateShiftWithoutPayMayMove(t *testing.T) {
	f := newShiftFixture()
	moved, err := f.svc.UpdateShift(context.Background(), 2, ShiftInput{Date: "2024-04-06", StartTime: "09:00", EndTime: "13:00"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !moved.Hours.Equal(dec("4")) || moved.Date.Month() != 4 {
		t.Fatalf("unexpected shift: %+v", moved)
	}
}

func TestDeleteShiftFailureKeepsPay(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()

	if _, err := f.svc.AssignShift(ctx, 1, 10); err != nil {
		t.Fatalf("assign: %v", err)
	}
	f.shifts.deleteErr = errors.New("connection reset")

	if err := f.svc.DeleteShift(ctx, 1); err == nil {
		t.Fatalf("expected delete to fail")
	}
	if !f.shifts.assigned[assignment{1, 10}] {
		t.Fatalf("assignment must survive a failed delete")
	}
	if _, err := f.payroll.GetLedgerRow(ctx, nil, 10, 1); err != nil {
		t.Fatalf("ledger row must survive a failed delete: %v", err)
	}
	assertMonth(t, f.payroll.month(10, 3, 2024), "400000", "0", "0", "400000")
}
