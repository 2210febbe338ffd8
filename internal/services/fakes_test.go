package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
)

// txStore is a fake repository that can roll back to the state it had when the transaction began.
type txStore interface {
	snapshot() (restore func())
}

// fakeTx runs fn inline with a nil executor; the fake repositories ignore it.
// When fn fails, every registered store is restored.
type fakeTx struct {
	mu          sync.Mutex
	stores      []txStore
	dayLocks    []int64
	monthLocks  []int64
	heldByOther map[int64]bool
	// onMonthLock runs while the month lock is being acquired, standing in for a transaction
	// that commits just before the lock is granted.
	onMonthLock func()
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	restores := make([]func(), 0, len(f.stores))
	for _, st := range f.stores {
		restores = append(restores, st.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

func (f *fakeTx) LockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dayLocks = append(f.dayLocks, staffID)
	return nil
}

func (f *fakeTx) TryLockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.heldByOther[staffID] {
		return false, nil
	}
	f.dayLocks = append(f.dayLocks, staffID)
	return true, nil
}

func (f *fakeTx) LockPayrollMonth(ctx context.Context, tx repositories.SQLExecutor, staffID int64, month, year int) error {
	f.mu.Lock()
	f.monthLocks = append(f.monthLocks, staffID)
	hook := f.onMonthLock
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// --- bookings ---

type fakeBookingRepo struct {
	repositories.BookingRepository
	bookings map[int64]*models.Booking
	nextID   int64
	// email is stamped on created bookings, standing in for the customers join.
	email *string
}

func newFakeBookingRepo(existing ...models.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[int64]*models.Booking{}, nextID: 100}
	for i := range existing {
		b := existing[i]
		r.bookings[b.ID] = &b
	}
	return r
}

func (r *fakeBookingRepo) snapshot() func() {
	saved := make(map[int64]models.Booking, len(r.bookings))
	for id, b := range r.bookings {
		saved[id] = *b
	}
	nextID := r.nextID
	return func() {
		r.bookings = make(map[int64]*models.Booking, len(saved))
		for id, b := range saved {
			r.bookings[id] = &b
		}
		r.nextID = nextID
	}
}

// GetBookings filters by staff and start range, newest first, and pages like the real repository.
func (r *fakeBookingRepo) GetBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error) {
	var matched []models.Booking
	for _, b := range r.bookings {
		if filters.StaffID != nil && (b.StaffID == nil || *b.StaffID != *filters.StaffID) {
			continue
		}
		if filters.DateFrom != nil && b.StartTime.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && !b.StartTime.Before(*filters.DateTo) {
			continue
		}
		matched = append(matched, *b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.After(matched[j].StartTime)
		}
		return matched[i].ID > matched[j].ID
	})
	page, size := filters.Page, filters.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 20
	}
	lo := (page - 1) * size
	if lo > len(matched) {
		lo = len(matched)
	}
	hi := lo + size
	if hi > len(matched) {
		hi = len(matched)
	}
	return matched[lo:hi], len(matched), nil
}

func (r *fakeBookingRepo) CreateBooking(ctx context.Context, executor repositories.SQLExecutor, b *models.Booking) error {
	r.nextID++
	b.ID = r.nextID
	cp := *b
	cp.CustomerEmail = r.email
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetBookingByID(ctx context.Context, executor repositories.SQLExecutor, id int64) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) ListStaffBookings(ctx context.Context, executor repositories.SQLExecutor, staffID int64, from, to time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range r.bookings {
		if b.StaffID == nil || *b.StaffID != staffID {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeBookingRepo) CountStaffBookings(ctx context.Context, executor repositories.SQLExecutor, staffIDs []int64, from, to time.Time) (map[int64]int, error) {
	counts := make(map[int64]int, len(staffIDs))
	for _, id := range staffIDs {
		list, _ := r.ListStaffBookings(ctx, executor, id, from, to)
		for _, b := range list {
			if b.Status.Blocking() {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (r *fakeBookingRepo) UpdateBooking(ctx context.Context, executor repositories.SQLExecutor, b *models.Booking) error {
	if _, ok := r.bookings[b.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) ReplaceLines(ctx context.Context, executor repositories.SQLExecutor, bookingID int64, serviceIDs []int64) error {
	return nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, executor repositories.SQLExecutor, id int64, from, to models.BookingStatus) error {
	b, ok := r.bookings[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if b.Status != from {
		return repositories.ErrStaleStatus
	}
	b.Status = to
	return nil
}

type fakeCustomerRepo struct {
	repositories.CustomerRepository
	customers map[int64]models.Customer
}

func (r *fakeCustomerRepo) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

type fakeCatalogRepo struct {
	repositories.CatalogRepository
	services map[int64]models.SpaService
}

func (r *fakeCatalogRepo) GetServicesByIDs(ctx context.Context, executor repositories.SQLExecutor, ids []int64) ([]models.SpaService, error) {
	var out []models.SpaService
	for _, id := range ids {
		if s, ok := r.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- staff and shifts ---

type fakeStaffRepo struct {
	repositories.StaffRepository
	staff map[int64]models.StaffMember
}

func (r *fakeStaffRepo) GetStaffByID(ctx context.Context, executor repositories.SQLExecutor, id int64) (*models.StaffMember, error) {
	s, ok := r.staff[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *fakeStaffRepo) ListActiveTechnicians(ctx context.Context, executor repositories.SQLExecutor) ([]models.StaffMember, error) {
	var out []models.StaffMember
	for _, s := range r.staff {
		if s.IsActive && s.Role == models.RoleTechnician {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type assignment struct{ shiftID, staffID int64 }

type fakeShiftRepo struct {
	repositories.ShiftRepository
	shifts        map[int64]models.Shift
	assigned      map[assignment]bool
	registrations map[int64]*models.ShiftRegistration
	nextRegID     int64
	// ledger, when set, makes DeleteShift fail like the foreign key on payroll_ledger.shift_id.
	ledger    *fakePayrollRepo
	deleteErr error
}

func newFakeShiftRepo(shifts ...models.Shift) *fakeShiftRepo {
	r := &fakeShiftRepo{
		shifts:        map[int64]models.Shift{},
		assigned:      map[assignment]bool{},
		registrations: map[int64]*models.ShiftRegistration{},
	}
	for _, s := range shifts {
		r.shifts[s.ID] = s
	}
	return r
}

func (r *fakeShiftRepo) snapshot() func() {
	shifts := make(map[int64]models.Shift, len(r.shifts))
	for id, sh := range r.shifts {
		shifts[id] = sh
	}
	assigned := make(map[assignment]bool, len(r.assigned))
	for k, v := range r.assigned {
		assigned[k] = v
	}
	regs := make(map[int64]models.ShiftRegistration, len(r.registrations))
	for id, reg := range r.registrations {
		regs[id] = *reg
	}
	nextRegID := r.nextRegID
	return func() {
		r.shifts, r.assigned, r.nextRegID = shifts, assigned, nextRegID
		r.registrations = make(map[int64]*models.ShiftRegistration, len(regs))
		for id, reg := range regs {
			r.registrations[id] = &reg
		}
	}
}

func (r *fakeShiftRepo) CreateShift(ctx context.Context, executor repositories.SQLExecutor, sh *models.Shift) error {
	sh.ID = int64(len(r.shifts) + 1)
	r.shifts[sh.ID] = *sh
	return nil
}

func (r *fakeShiftRepo) GetShiftByID(ctx context.Context, executor repositories.SQLExecutor, id int64) (*models.Shift, error) {
	s, ok := r.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *fakeShiftRepo) UpdateShift(ctx context.Context, executor repositories.SQLExecutor, sh *models.Shift) error {
	if _, ok := r.shifts[sh.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.shifts[sh.ID] = *sh
	return nil
}

func (r *fakeShiftRepo) DeleteShift(ctx context.Context, executor repositories.SQLExecutor, id int64) error {
	if _, ok := r.shifts[id]; !ok {
		return repositories.ErrNotFound
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if r.ledger != nil {
		if rows, _ := r.ledger.ListShiftLedgerRows(ctx, executor, id); len(rows) > 0 {
			return repositories.ErrForeignKeyViolation
		}
	}
	delete(r.shifts, id)
	for k := range r.assigned {
		if k.shiftID == id {
			delete(r.assigned, k)
		}
	}
	return nil
}

func (r *fakeShiftRepo) ListAssignedStaffIDs(ctx context.Context, executor repositories.SQLExecutor, shiftID int64) ([]int64, error) {
	var ids []int64
	for k := range r.assigned {
		if k.shiftID == shiftID {
			ids = append(ids, k.staffID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeShiftRepo) AssignStaff(ctx context.Context, executor repositories.SQLExecutor, shiftID, staffID int64) error {
	key := assignment{shiftID, staffID}
	if r.assigned[key] {
		return repositories.ErrDuplicateKey
	}
	r.assigned[key] = true
	return nil
}

func (r *fakeShiftRepo) UnassignStaff(ctx context.Context, executor repositories.SQLExecutor, shiftID, staffID int64) error {
	key := assignment{shiftID, staffID}
	if !r.assigned[key] {
		return repositories.ErrNotFound
	}
	delete(r.assigned, key)
	return nil
}

func (r *fakeShiftRepo) CreateRegistration(ctx context.Context, executor repositories.SQLExecutor, reg *models.ShiftRegistration) (bool, error) {
	for _, existing := range r.registrations {
		if existing.ShiftID == reg.ShiftID && existing.StaffID == reg.StaffID {
			return false, nil
		}
	}
	r.nextRegID++
	reg.ID = r.nextRegID
	cp := *reg
	r.registrations[reg.ID] = &cp
	return true, nil
}

func (r *fakeShiftRepo) GetRegistrationByID(ctx context.Context, executor repositories.SQLExecutor, id int64) (*models.ShiftRegistration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *fakeShiftRepo) UpdateRegistrationStatus(ctx context.Context, executor repositories.SQLExecutor, id int64, status models.RegistrationStatus) error {
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	reg.Status = status
	return nil
}

// --- payroll ---

type monthKey struct {
	staffID     int64
	month, year int
}

type fakePayrollRepo struct {
	repositories.PayrollRepository
	rows      map[int64]*models.LedgerRow
	monthly   map[monthKey]*models.MonthlyPayroll
	nextRowID int64
	nextPayID int64
	inserts   int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{rows: map[int64]*models.LedgerRow{}, monthly: map[monthKey]*models.MonthlyPayroll{}}
}

func (r *fakePayrollRepo) snapshot() func() {
	rows := make(map[int64]models.LedgerRow, len(r.rows))
	for id, row := range r.rows {
		rows[id] = *row
	}
	monthly := make(map[monthKey]models.MonthlyPayroll, len(r.monthly))
	for k, p := range r.monthly {
		monthly[k] = *p
	}
	nextRowID, nextPayID, inserts := r.nextRowID, r.nextPayID, r.inserts
	return func() {
		r.rows = make(map[int64]*models.LedgerRow, len(rows))
		for id, row := range rows {
			r.rows[id] = &row
		}
		r.monthly = make(map[monthKey]*models.MonthlyPayroll, len(monthly))
		for k, p := range monthly {
			r.monthly[k] = &p
		}
		r.nextRowID, r.nextPayID, r.inserts = nextRowID, nextPayID, inserts
	}
}

func (r *fakePayrollRepo) GetLedgerRow(ctx context.Context, executor repositories.SQLExecutor, staffID, shiftID int64) (*models.LedgerRow, error) {
	for _, row := range r.rows {
		if row.StaffID == staffID && row.ShiftID == shiftID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakePayrollRepo) GetLedgerRowByID(ctx context.Context, executor repositories.SQLExecutor, id int64) (*models.LedgerRow, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakePayrollRepo) InsertLedgerRow(ctx context.Context, executor repositories.SQLExecutor, row *models.LedgerRow) error {
	r.nextRowID++
	r.inserts++
	row.ID = r.nextRowID
	cp := *row
	r.rows[row.ID] = &cp
	return nil
}

func (r *fakePayrollRepo) UpdateLedgerAdjustments(ctx context.Context, executor repositories.SQLExecutor, id int64, bonus, deduction decimal.Decimal) error {
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	row.Bonus, row.Deduction = bonus, deduction
	return nil
}

func (r *fakePayrollRepo) DeleteLedgerRow(ctx context.Context, executor repositories.SQLExecutor, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakePayrollRepo) ListLedgerRows(ctx context.Context, executor repositories.SQLExecutor, staffID int64, month, year int) ([]models.LedgerRow, error) {
	var out []models.LedgerRow
	for _, row := range r.rows {
		if row.StaffID == staffID && int(row.WorkDate.Month()) == month && row.WorkDate.Year() == year {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePayrollRepo) ListShiftLedgerRows(ctx context.Context, executor repositories.SQLExecutor, shiftID int64) ([]models.LedgerRow, error) {
	var out []models.LedgerRow
	for _, row := range r.rows {
		if row.ShiftID == shiftID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (r *fakePayrollRepo) EnsureMonthly(ctx context.Context, executor repositories.SQLExecutor, staffID int64, month, year int) (*models.MonthlyPayroll, error) {
	key := monthKey{staffID, month, year}
	p, ok := r.monthly[key]
	if !ok {
		r.nextPayID++
		p = &models.MonthlyPayroll{ID: r.nextPayID, StaffID: staffID, Month: month, Year: year,
			Base: decimal.Zero, Bonus: decimal.Zero, Deduction: decimal.Zero, Total: decimal.Zero}
		r.monthly[key] = p
	}
	cp := *p
	return &cp, nil
}

func (r *fakePayrollRepo) SaveMonthly(ctx context.Context, executor repositories.SQLExecutor, p *models.MonthlyPayroll) error {
	cp := *p
	r.monthly[monthKey{p.StaffID, p.Month, p.Year}] = &cp
	return nil
}

func (r *fakePayrollRepo) ListStaffInMonth(ctx context.Context, executor repositories.SQLExecutor, month, year int) ([]int64, error) {
	seen := map[int64]bool{}
	var ids []int64
	for k := range r.monthly {
		if k.month == month && k.year == year && !seen[k.staffID] {
			seen[k.staffID] = true
			ids = append(ids, k.staffID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakePayrollRepo) month(staffID int64, month, year int) models.MonthlyPayroll {
	if p, ok := r.monthly[monthKey{staffID, month, year}]; ok {
		return *p
	}
	return models.MonthlyPayroll{}
}

// --- outbox ---

type fakeOutbox struct {
	repositories.NotificationRepository
	events []models.OutboxEvent
}

func (o *fakeOutbox) Enqueue(ctx context.Context, executor repositories.SQLExecutor, e *models.OutboxEvent) error {
	o.events = append(o.events, *e)
	return nil
}

func (o *fakeOutbox) kinds() []string {
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Kind)
	}
	return out
}

// --- builders ---

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func technician(id int64, rate string) models.StaffMember {
	m := models.StaffMember{ID: id, FullName: "Tech", Role: models.RoleTechnician, IsActive: true, Email: ptr("tech@example.com")}
	if rate != "" {
		m.JobTitle = &models.JobTitle{ID: 1, Name: "Therapist", HourlyRate: decimal.NewNullDecimal(dec(rate))}
	}
	return m
}
