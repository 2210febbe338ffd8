package services

import (
	"errors"
	"fmt"

	"spa_backend/internal/models"
)

// Error classes. Every domain error below wraps exactly one of them, so callers can
// branch on the class with errors.Is and on the specific case with the domain sentinel.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrComputation  = errors.New("computation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream service failed")
)

type domainError struct {
	class error
	msg   string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.class }

func newError(class error, msg string) error {
	return &domainError{class: class, msg: msg}
}

// validationf builds an ad-hoc validation error.
func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid credentials")
	ErrAccountInactive    = newError(ErrUnauthorized, "account is inactive")
	ErrInvalidToken       = newError(ErrUnauthorized, "invalid or expired token")
	ErrWrongPassword      = newError(ErrValidation, "current password is incorrect")
	ErrAccountExists      = newError(ErrConflict, "an account with this email or phone already exists")

	ErrCustomerNotFound = newError(ErrNotFound, "customer not found")
	ErrCustomerInactive = newError(ErrValidation, "customer account is inactive")
	ErrServiceNotFound  = newError(ErrNotFound, "service not found")
	ErrStaffNotFound    = newError(ErrNotFound, "staff member not found")
	ErrJobTitleNotFound = newError(ErrNotFound, "job title not found")
	ErrJobTitleInUse    = newError(ErrConflict, "job title is still assigned to staff members")
	ErrUsernameTaken    = newError(ErrConflict, "username already exists")

	ErrBookingNotFound     = newError(ErrNotFound, "booking not found")
	ErrBookingInPast       = newError(ErrValidation, "booking start must be in the future")
	ErrServiceUnavailable  = newError(ErrValidation, "one or more services do not exist or are inactive")
	ErrNoServices          = newError(ErrValidation, "at least one service is required")
	ErrStaffNotBookable    = newError(ErrValidation, "staff member is inactive or does not take bookings")
	ErrStaffBusy           = newError(ErrConflict, "staff member is not available at the requested time")
	ErrNoStaffAvailable    = newError(ErrConflict, "no staff available for this slot")
	ErrInvalidTransition   = newError(ErrConflict, "booking status does not allow this action")
	ErrCancelWindow        = newError(ErrValidation, "bookings cannot be cancelled within 4 hours of the appointment")
	ErrBookingNotEditable  = newError(ErrConflict, "completed or cancelled bookings cannot be changed")
	ErrBookingChangedUnder = newError(ErrConflict, "booking was modified concurrently, retry")

	ErrShiftNotFound          = newError(ErrNotFound, "shift not found")
	ErrShiftAlreadyAssigned   = newError(ErrConflict, "staff member is already assigned to this shift")
	ErrAssignmentNotFound     = newError(ErrNotFound, "staff member is not assigned to this shift")
	ErrShiftHasLedger         = newError(ErrConflict, "shift hours cannot change after pay has been recorded")
	ErrRegistrationNotFound   = newError(ErrNotFound, "shift registration not found")
	ErrRegistrationNotPending = newError(ErrValidation, "shift registration has already been reviewed")

	ErrMissingRateOrHours = newError(ErrComputation, "pay cannot be computed: hourly rate or shift hours missing")
	ErrLedgerRowNotFound  = newError(ErrNotFound, "ledger row not found")

	ErrInvoiceNotFound      = newError(ErrNotFound, "invoice not found")
	ErrInvoiceExists        = newError(ErrConflict, "an invoice already exists for this booking")
	ErrBookingNotCompleted  = newError(ErrValidation, "only completed bookings can be invoiced")
	ErrInvoiceAlreadyPaid   = newError(ErrConflict, "invoice is already paid")
	ErrInsufficientPayment  = newError(ErrValidation, "amount is less than the invoice total")
	ErrGatewayNotConfigured = newError(ErrUpstream, "online payment is not configured")
	ErrGatewayFailure       = newError(ErrUpstream, "payment gateway request failed")
	ErrInvalidSignature     = newError(ErrValidation, "invalid payment notification signature")

	ErrConversationNotFound = newError(ErrNotFound, "conversation not found")
	ErrEmptyMessage         = newError(ErrValidation, "message body is required")

	ErrSettingNotFound = newError(ErrNotFound, "setting not found")
)

// StaffBusyError carries the bookings that collide with a requested slot.
type StaffBusyError struct {
	StaffID   int64
	Conflicts []models.BookingConflict
}

func (e *StaffBusyError) Error() string {
	return fmt.Sprintf("staff member %d has %d conflicting booking(s)", e.StaffID, len(e.Conflicts))
}

func (e *StaffBusyError) Unwrap() error { return ErrStaffBusy }
