package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/internal/scheduling"
	"spa_backend/pkg/utils"
)

// --- Booking DTOs ---
type AvailabilityRequest struct {
	StaffID          *int64    `json:"staff_id"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	ServiceIDs       []int64   `json:"service_ids"`
	ExcludeBookingID int64     `json:"exclude_booking_id"`
}

type CreateBookingRequest struct {
	CustomerID int64     `json:"customer_id"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	ServiceIDs []int64   `json:"service_ids" binding:"required"`
	StaffID    *int64    `json:"staff_id"`
	Notes      *string   `json:"notes"`
}

// UpdateBookingRequest DTO. A nil field is left unchanged.
type UpdateBookingRequest struct {
	StartTime  *time.Time `json:"start_time"`
	ServiceIDs []int64    `json:"service_ids"`
	StaffID    *int64     `json:"staff_id"`
	Notes      *string    `json:"notes"`
}

type PaginatedBookings struct {
	Bookings []models.Booking `json:"bookings"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// SlotGridSource supplies the bookable time grid.
type SlotGridSource interface {
	SlotGrid(ctx context.Context) scheduling.SlotGrid
}

// BookingConfig holds process-wide booking settings.
type BookingConfig struct {
	Strategy scheduling.Strategy
	Location *time.Location
}

// BookingService handles availability, booking creation and the booking lifecycle.
type BookingService interface {
	CheckAvailability(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityResult, error)
	AvailableStaff(ctx context.Context, start time.Time, serviceIDs []int64) ([]models.StaffRef, error)
	AvailableSlots(ctx context.Context, date time.Time, serviceIDs []int64, staffID *int64) ([]models.Slot, error)

	BookAsCustomer(ctx context.Context, actor models.Actor, req CreateBookingRequest) (*models.Booking, error)
	CreateBooking(ctx context.Context, actor models.Actor, req CreateBookingRequest) (*models.Booking, error)
	UpdateBooking(ctx context.Context, actor models.Actor, id int64, req UpdateBookingRequest) (*models.Booking, error)
	AssignStaff(ctx context.Context, actor models.Actor, id, staffID int64) (*models.Booking, error)

	Confirm(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	Start(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	Complete(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	CancelByStaff(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	CancelByCustomer(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)

	ListBookings(ctx context.Context, filters models.BookingFilters) (*PaginatedBookings, error)
	GetBooking(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	ListMyBookings(ctx context.Context, actor models.Actor, page, pageSize int) (*PaginatedBookings, error)
	MySchedule(ctx context.Context, actor models.Actor, from, to time.Time) ([]models.Booking, error)
	Statistics(ctx context.Context, from, to time.Time) (models.BookingStatistics, error)
}

type bookingService struct {
	repo         repositories.BookingRepository
	customerRepo repositories.CustomerRepository
	catalogRepo  repositories.CatalogRepository
	staffRepo    repositories.StaffRepository
	slots        SlotGridSource
	tx           TxRunner
	locks        Locker
	notify       notifier
	strategy     scheduling.Strategy
	loc          *time.Location
	now          func() time.Time
	rng          *rand.Rand
}

// NewBookingService creates a new instance of BookingService.
func NewBookingService(
	repo repositories.BookingRepository,
	customerRepo repositories.CustomerRepository,
	catalogRepo repositories.CatalogRepository,
	staffRepo repositories.StaffRepository,
	slots SlotGridSource,
	tx TxRunner,
	locks Locker,
	outbox repositories.NotificationRepository,
	cfg BookingConfig,
) BookingService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = scheduling.StrategyRandom
	}
	return &bookingService{
		repo:         repo,
		customerRepo: customerRepo,
		catalogRepo:  catalogRepo,
		staffRepo:    staffRepo,
		slots:        slots,
		tx:           tx,
		locks:        locks,
		notify:       notifier{outbox: outbox},
		strategy:     strategy,
		loc:          loc,
		now:          time.Now,
	}
}

// mapSchedulingError lifts scheduling package errors into the service taxonomy.
func mapSchedulingError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, scheduling.ErrCancelWindow):
		return ErrCancelWindow
	case errors.Is(err, scheduling.ErrNoStaffAvailable):
		return ErrNoStaffAvailable
	case errors.Is(err, scheduling.ErrInvalidDuration):
		return validationf("%v", err)
	}
	return err
}

// resolveLines loads the services of a booking. Duplicate ids collapse; every id must exist and be active.
func (s *bookingService) resolveLines(ctx context.Context, tx repositories.SQLExecutor, ids []int64) ([]models.BookingLine, error) {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return nil, ErrNoServices
	}
	services, err := s.catalogRepo.GetServicesByIDs(ctx, tx, uniq)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.SpaService, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}
	lines := make([]models.BookingLine, 0, len(uniq))
	for _, id := range uniq {
		svc, ok := byID[id]
		if !ok || !svc.IsActive {
			return nil, ErrServiceUnavailable
		}
		lines = append(lines, models.BookingLine{
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
		})
	}
	return lines, nil
}

func durationMinutes(lines []models.BookingLine) int {
	return int(scheduling.EffectiveDuration(lines) / time.Minute)
}

// bookableStaff loads a staff member that may take bookings: active technicians only.
func (s *bookingService) bookableStaff(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.StaffMember, error) {
	st, err := s.staffRepo.GetStaffByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !st.IsActive || st.Role != models.RoleTechnician {
		return nil, ErrStaffNotBookable
	}
	return st, nil
}

// availability runs the checker against the staff member's bookings on the day of start.
func (s *bookingService) availability(ctx context.Context, tx repositories.SQLExecutor, staffID int64, start time.Time, minutes int, excludeID int64) (models.AvailabilityResult, error) {
	dayStart, dayEnd := scheduling.DayBounds(start, s.loc)
	existing, err := s.repo.ListStaffBookings(ctx, tx, staffID, dayStart, dayEnd)
	if err != nil {
		return models.AvailabilityResult{}, err
	}
	res, err := scheduling.CheckAvailability(&staffID, existing, start, minutes, excludeID, s.loc)
	if err != nil {
		return res, mapSchedulingError(err)
	}
	return res, nil
}

// claimStaff locks the staff day and fails with the conflict list when the slot is taken.
func (s *bookingService) claimStaff(ctx context.Context, tx repositories.SQLExecutor, staffID int64, start time.Time, minutes int, excludeID int64) error {
	if err := s.locks.LockStaffDay(ctx, tx, staffID, start.In(s.loc)); err != nil {
		return err
	}
	res, err := s.availability(ctx, tx, staffID, start, minutes, excludeID)
	if err != nil {
		return err
	}
	if !res.Available {
		return &StaffBusyError{StaffID: staffID, Conflicts: res.Conflicts}
	}
	return nil
}

// pickStaff runs the auto-assignment picker over the active technicians.
// Candidates whose day lock is held by a concurrent booking are skipped.
func (s *bookingService) pickStaff(ctx context.Context, tx repositories.SQLExecutor, start time.Time, minutes int) (int64, error) {
	techs, err := s.staffRepo.ListActiveTechnicians(ctx, tx)
	if err != nil {
		return 0, err
	}
	candidates := make([]scheduling.Candidate, 0, len(techs))
	ids := make([]int64, 0, len(techs))
	for _, t := range techs {
		candidates = append(candidates, scheduling.Candidate{StaffID: t.ID})
		ids = append(ids, t.ID)
	}
	if s.strategy == scheduling.StrategyLeastBusy && len(ids) > 0 {
		dayStart, dayEnd := scheduling.DayBounds(start, s.loc)
		loads, err := s.repo.CountStaffBookings(ctx, tx, ids, dayStart, dayEnd)
		if err != nil {
			return 0, err
		}
		for i := range candidates {
			candidates[i].Load = loads[candidates[i].StaffID]
		}
	}

	isFree := func(ctx context.Context, staffID int64) (bool, error) {
		locked, err := s.locks.TryLockStaffDay(ctx, tx, staffID, start.In(s.loc))
		if err != nil || !locked {
			return false, err
		}
		res, err := s.availability(ctx, tx, staffID, start, minutes, 0)
		if err != nil {
			return false, err
		}
		return res.Available, nil
	}
	id, err := scheduling.Pick(ctx, candidates, s.strategy, s.rng, isFree)
	if err != nil {
		return 0, mapSchedulingError(err)
	}
	return id, nil
}

func (s *bookingService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityResult, error) {
	minutes := int(scheduling.FallbackDuration / time.Minute)
	if len(req.ServiceIDs) > 0 {
		lines, err := s.resolveLines(ctx, nil, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		minutes = durationMinutes(lines)
	}
	if req.StaffID == nil {
		res, err := scheduling.CheckAvailability(nil, nil, req.StartTime, minutes, req.ExcludeBookingID, s.loc)
		if err != nil {
			return nil, mapSchedulingError(err)
		}
		return &res, nil
	}
	if _, err := s.staffRepo.GetStaffByID(ctx, nil, *req.StaffID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	res, err := s.availability(ctx, nil, *req.StaffID, req.StartTime, minutes, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *bookingService) AvailableStaff(ctx context.Context, start time.Time, serviceIDs []int64) ([]models.StaffRef, error) {
	lines, err := s.resolveLines(ctx, nil, serviceIDs)
	if err != nil {
		return nil, err
	}
	minutes := durationMinutes(lines)
	techs, err := s.staffRepo.ListActiveTechnicians(ctx, nil)
	if err != nil {
		return nil, err
	}
	free := []models.StaffRef{}
	for _, t := range techs {
		res, err := s.availability(ctx, nil, t.ID, start, minutes, 0)
		if err != nil {
			return nil, err
		}
		if res.Available {
			free = append(free, models.StaffRef{ID: t.ID, FullName: t.FullName})
		}
	}
	return free, nil
}

// AvailableSlots marks each grid time of the day. Without a staff id a slot is open when any technician is free.
func (s *bookingService) AvailableSlots(ctx context.Context, date time.Time, serviceIDs []int64, staffID *int64) ([]models.Slot, error) {
	lines, err := s.resolveLines(ctx, nil, serviceIDs)
	if err != nil {
		return nil, err
	}
	minutes := durationMinutes(lines)

	grid := scheduling.DefaultSlotGrid
	if s.slots != nil {
		grid = s.slots.SlotGrid(ctx)
	}
	times, err := grid.Times(date, s.loc)
	if err != nil {
		utils.LogWarn("AvailableSlots: invalid slot grid, using default", map[string]interface{}{"error": err.Error()})
		if times, err = scheduling.DefaultSlotGrid.Times(date, s.loc); err != nil {
			return nil, err
		}
	}

	var staffIDs []int64
	if staffID != nil {
		if _, err := s.bookableStaff(ctx, nil, *staffID); err != nil {
			return nil, err
		}
		staffIDs = []int64{*staffID}
	} else {
		techs, err := s.staffRepo.ListActiveTechnicians(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, t := range techs {
			staffIDs = append(staffIDs, t.ID)
		}
	}

	dayStart, dayEnd := scheduling.DayBounds(date, s.loc)
	dayBookings := make(map[int64][]models.Booking, len(staffIDs))
	for _, id := range staffIDs {
		b, err := s.repo.ListStaffBookings(ctx, nil, id, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		dayBookings[id] = b
	}

	now := s.now()
	slots := make([]models.Slot, 0, len(times))
	for _, t := range times {
		slot := models.Slot{Time: t.In(s.loc).Format("15:04")}
		if t.After(now) {
			for _, id := range staffIDs {
				sid := id
				res, err := scheduling.CheckAvailability(&sid, dayBookings[id], t, minutes, 0, s.loc)
				if err != nil {
					return nil, mapSchedulingError(err)
				}
				if res.Available {
					slot.Available = true
					break
				}
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// BookAsCustomer books for the calling customer.
func (s *bookingService) BookAsCustomer(ctx context.Context, actor models.Actor, req CreateBookingRequest) (*models.Booking, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	req.CustomerID = actor.ID
	return s.create(ctx, req)
}

// CreateBooking books on behalf of a customer from the front desk.
func (s *bookingService) CreateBooking(ctx context.Context, actor models.Actor, req CreateBookingRequest) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if req.CustomerID <= 0 {
		return nil, validationf("customer_id is required")
	}
	return s.create(ctx, req)
}

func (s *bookingService) create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if !req.StartTime.After(s.now()) {
		return nil, ErrBookingInPast
	}
	customer, err := s.customerRepo.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if !customer.IsActive {
		return nil, ErrCustomerInactive
	}

	b := &models.Booking{
		CustomerID: req.CustomerID,
		StartTime:  req.StartTime,
		Status:     models.BookingStatusConfirmed,
		Notes:      req.Notes,
	}
	err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		lines, err := s.resolveLines(ctx, tx, req.ServiceIDs)
		if err != nil {
			return err
		}
		b.Lines = lines
		minutes := durationMinutes(lines)

		if req.StaffID != nil {
			if _, err := s.bookableStaff(ctx, tx, *req.StaffID); err != nil {
				return err
			}
			if err := s.claimStaff(ctx, tx, *req.StaffID, req.StartTime, minutes, 0); err != nil {
				return err
			}
			b.StaffID = req.StaffID
		} else {
			id, err := s.pickStaff(ctx, tx, req.StartTime, minutes)
			if err != nil {
				return err
			}
			b.StaffID = &id
		}
		return s.repo.CreateBooking(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.GetBookingByID(ctx, nil, b.ID)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("booking created", map[string]interface{}{"booking_id": created.ID, "staff_id": created.StaffID, "customer_id": created.CustomerID})
	s.notify.enqueue(ctx, models.NotificationBookingConfirmed, created.CustomerEmail, bookingPayload(created, s.loc))
	return created, nil
}

func (s *bookingService) lockedBooking(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// UpdateBooking is a front-desk edit. Customers cancel instead, and a technician may only touch their own bookings.
func (s *bookingService) UpdateBooking(ctx context.Context, actor models.Actor, id int64, req UpdateBookingRequest) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		b, err := s.lockedBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if actor.Role == models.RoleTechnician && (b.StaffID == nil || *b.StaffID != actor.ID) {
			return ErrBookingNotFound
		}
		if b.Status.Terminal() {
			return ErrBookingNotEditable
		}

		recheck := false
		if req.StartTime != nil && !req.StartTime.Equal(b.StartTime) {
			if !req.StartTime.After(s.now()) {
				return ErrBookingInPast
			}
			b.StartTime = *req.StartTime
			recheck = true
		}
		if req.ServiceIDs != nil {
			lines, err := s.resolveLines(ctx, tx, req.ServiceIDs)
			if err != nil {
				return err
			}
			b.Lines = lines
			recheck = true
			if err := s.repo.ReplaceLines(ctx, tx, b.ID, b.ServiceIDs()); err != nil {
				return err
			}
		}
		if req.StaffID != nil && (b.StaffID == nil || *b.StaffID != *req.StaffID) {
			if _, err := s.bookableStaff(ctx, tx, *req.StaffID); err != nil {
				return err
			}
			b.StaffID = req.StaffID
			recheck = true
		}
		if req.Notes != nil {
			b.Notes = req.Notes
		}

		if recheck && b.StaffID != nil {
			if err := s.claimStaff(ctx, tx, *b.StaffID, b.StartTime, durationMinutes(b.Lines), b.ID); err != nil {
				return err
			}
		}
		return s.repo.UpdateBooking(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("booking updated", map[string]interface{}{"booking_id": id, "by_staff": actor.ID})
	return s.repo.GetBookingByID(ctx, nil, id)
}

func (s *bookingService) AssignStaff(ctx context.Context, actor models.Actor, id, staffID int64) (*models.Booking, error) {
	return s.UpdateBooking(ctx, actor, id, UpdateBookingRequest{StaffID: &staffID})
}

// transition moves a booking along the status machine. Technicians may only move their own bookings.
func (s *bookingService) transition(ctx context.Context, actor models.Actor, id int64, to models.BookingStatus) (*models.Booking, error) {
	var b *models.Booking
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if b, err = s.lockedBooking(ctx, tx, id); err != nil {
			return err
		}
		if actor.Role == models.RoleTechnician && (b.StaffID == nil || *b.StaffID != actor.ID) {
			return ErrBookingNotFound
		}
		if err := scheduling.CheckTransition(b.Status, to); err != nil {
			return mapSchedulingError(err)
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, b.Status, to); err != nil {
			if errors.Is(err, repositories.ErrStaleStatus) {
				return ErrBookingChangedUnder
			}
			return err
		}
		b.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	if to == models.BookingStatusCancelled {
		s.notify.enqueue(ctx, models.NotificationBookingCancelled, b.CustomerEmail, bookingPayload(b, s.loc))
	}
	return s.repo.GetBookingByID(ctx, nil, id)
}

func (s *bookingService) Confirm(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	return s.transition(ctx, actor, id, models.BookingStatusConfirmed)
}

func (s *bookingService) Start(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	return s.transition(ctx, actor, id, models.BookingStatusInProgress)
}

func (s *bookingService) Complete(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	return s.transition(ctx, actor, id, models.BookingStatusCompleted)
}

func (s *bookingService) CancelByStaff(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	return s.transition(ctx, actor, id, models.BookingStatusCancelled)
}

// CancelByCustomer lets a customer cancel their own booking more than four hours ahead.
func (s *bookingService) CancelByCustomer(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	var b *models.Booking
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if b, err = s.lockedBooking(ctx, tx, id); err != nil {
			return err
		}
		if b.CustomerID != actor.ID {
			return ErrBookingNotFound
		}
		if err := scheduling.CheckCustomerCancel(b.Status, b.StartTime, s.now()); err != nil {
			return mapSchedulingError(err)
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, b.Status, models.BookingStatusCancelled); err != nil {
			if errors.Is(err, repositories.ErrStaleStatus) {
				return ErrBookingChangedUnder
			}
			return err
		}
		b.Status = models.BookingStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.enqueue(ctx, models.NotificationBookingCancelled, b.CustomerEmail, bookingPayload(b, s.loc))
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, filters models.BookingFilters) (*PaginatedBookings, error) {
	if filters.Status != nil && !models.IsValidBookingStatus(string(*filters.Status)) {
		return nil, validationf("invalid status %q", *filters.Status)
	}
	bookings, total, err := s.repo.GetBookings(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &PaginatedBookings{Bookings: bookings, Total: total, Page: filters.Page, PageSize: filters.PageSize}, nil
}

// GetBooking hides other customers' bookings behind not found.
func (s *bookingService) GetBooking(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if actor.IsCustomer() && b.CustomerID != actor.ID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, actor models.Actor, page, pageSize int) (*PaginatedBookings, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	return s.ListBookings(ctx, models.BookingFilters{CustomerID: &actor.ID, Page: page, PageSize: pageSize})
}

// schedulePageSize is the largest page the booking repository serves.
const schedulePageSize = 200

// MySchedule lists a staff member's bookings between two dates, both inclusive.
func (s *bookingService) MySchedule(ctx context.Context, actor models.Actor, from, to time.Time) ([]models.Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	start, _ := scheduling.DayBounds(from, s.loc)
	_, end := scheduling.DayBounds(to, s.loc)
	if !end.After(start) {
		return nil, validationf("end date must not be before start date")
	}
	filters := models.BookingFilters{StaffID: &actor.ID, DateFrom: &start, DateTo: &end, PageSize: schedulePageSize}
	out := []models.Booking{}
	for filters.Page = 1; ; filters.Page++ {
		page, total, err := s.repo.GetBookings(ctx, filters)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < schedulePageSize || len(out) >= total {
			return out, nil
		}
	}
}

func (s *bookingService) Statistics(ctx context.Context, from, to time.Time) (models.BookingStatistics, error) {
	start, _ := scheduling.DayBounds(from, s.loc)
	_, end := scheduling.DayBounds(to, s.loc)
	if !end.After(start) {
		return models.BookingStatistics{}, validationf("end date must not be before start date")
	}
	return s.repo.Statistics(ctx, start, end)
}
