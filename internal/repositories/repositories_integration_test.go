package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spa_backend/internal/database"
	"spa_backend/internal/models"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema. Tests skip without it.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.Open(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.ApplySchema(ctx, db, filepath.Join("..", "database", "schema.sql")); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

type seeded struct {
	customer models.Customer
	tech     models.StaffMember
	service  models.SpaService
}

func seedBasics(t *testing.T, ctx context.Context, db *sql.DB) seeded {
	t.Helper()
	suffix := uuid.NewString()[:8]

	jt := &models.JobTitle{Name: "Therapist " + suffix, HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(50000))}
	if err := NewStaffRepository(db).CreateJobTitle(ctx, db, jt); err != nil {
		t.Fatalf("create job title: %v", err)
	}
	tech := &models.StaffMember{
		FullName:     "Tech " + suffix,
		Username:     "tech-" + suffix,
		PasswordHash: "x",
		Role:         models.RoleTechnician,
		JobTitleID:   &jt.ID,
		IsActive:     true,
	}
	if err := NewStaffRepository(db).CreateStaff(ctx, db, tech); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	email := "guest-" + suffix + "@example.com"
	customer := &models.Customer{FullName: "Guest " + suffix, Email: &email, PasswordHash: "x", IsActive: true}
	if err := NewCustomerRepository(db).CreateCustomer(ctx, db, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	svc := &models.SpaService{Name: "Massage " + suffix, Price: decimal.NewFromInt(300000), DurationMinutes: 90, IsActive: true}
	if err := NewCatalogRepository(db).CreateService(ctx, db, svc); err != nil {
		t.Fatalf("create service: %v", err)
	}
	return seeded{customer: *customer, tech: *tech, service: *svc}
}

func TestBookingRepositoryIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := seedBasics(t, ctx, db)
	repo := NewBookingRepository(db)

	day := time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC)
	mk := func(hour int, status models.BookingStatus) *models.Booking {
		b := &models.Booking{
			CustomerID: s.customer.ID,
			StaffID:    &s.tech.ID,
			StartTime:  day.Add(time.Duration(hour) * time.Hour),
			Status:     status,
			Lines:      []models.BookingLine{{ServiceID: s.service.ID}},
		}
		if err := repo.CreateBooking(ctx, db, b); err != nil {
			t.Fatalf("create booking: %v", err)
		}
		return b
	}
	first := mk(10, models.BookingStatusConfirmed)
	mk(13, models.BookingStatusCancelled)

	got, err := repo.GetBookingByID(ctx, nil, first.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].DurationMinutes != 90 || got.CustomerEmail == nil {
		t.Fatalf("unexpected booking: %+v", got)
	}

	list, err := repo.ListStaffBookings(ctx, nil, s.tech.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list staff bookings: %v", err)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("cancelled bookings must not block: %+v", list)
	}

	counts, err := repo.CountStaffBookings(ctx, nil, []int64{s.tech.ID}, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[s.tech.ID] != 1 {
		t.Fatalf("expected load 1, got %d", counts[s.tech.ID])
	}

	if err := repo.UpdateStatus(ctx, db, first.ID, models.BookingStatusConfirmed, models.BookingStatusInProgress); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.UpdateStatus(ctx, db, first.ID, models.BookingStatusConfirmed, models.BookingStatusCancelled); !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}
}

func TestPayrollRepositoryIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := seedBasics(t, ctx, db)
	repo := NewPayrollRepository(db)

	shift := &models.Shift{Date: time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC), StartTime: "08:00", EndTime: "16:00", Hours: decimal.NewFromInt(8)}
	if err := NewShiftRepository(db).CreateShift(ctx, db, shift); err != nil {
		t.Fatalf("create shift: %v", err)
	}

	p1, err := repo.EnsureMonthly(ctx, db, s.tech.ID, 3, 2030)
	if err != nil {
		t.Fatalf("ensure monthly: %v", err)
	}
	p2, err := repo.EnsureMonthly(ctx, db, s.tech.ID, 3, 2030)
	if err != nil {
		t.Fatalf("ensure monthly again: %v", err)
	}
	if p1.ID != p2.ID {
		t.Fatalf("EnsureMonthly must be idempotent: %d != %d", p1.ID, p2.ID)
	}

	row := &models.LedgerRow{
		StaffID:    s.tech.ID,
		ShiftID:    shift.ID,
		WorkDate:   shift.Date,
		Hours:      shift.Hours,
		HourlyRate: decimal.NewFromInt(50000),
		Base:       decimal.NewFromInt(400000),
		Bonus:      decimal.Zero,
		Deduction:  decimal.Zero,
		PayrollID:  &p1.ID,
	}
	if err := repo.InsertLedgerRow(ctx, db, row); err != nil {
		t.Fatalf("insert ledger row: %v", err)
	}
	dup := *row
	if err := repo.InsertLedgerRow(ctx, db, &dup); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	p1.Base, p1.Total = row.Base, row.Base
	if err := repo.SaveMonthly(ctx, db, p1); err != nil {
		t.Fatalf("save monthly: %v", err)
	}
	rows, err := repo.ListLedgerRows(ctx, db, s.tech.ID, 3, 2030)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(rows) != 1 || !rows[0].Base.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("unexpected ledger: %+v", rows)
	}
}

func TestNotificationRepositoryIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)

	ev := &models.OutboxEvent{Kind: models.NotificationBookingConfirmed, Channel: models.ChannelEmail, Recipient: "guest@example.com", Payload: []byte(`{"booking_id":1}`)}
	if err := repo.Enqueue(ctx, nil, ev); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if ev.ID == "" {
		t.Fatalf("enqueue must assign an id")
	}

	attempts, err := repo.MarkFailed(ctx, ev.ID, "smtp down")
	if err != nil || attempts != 1 {
		t.Fatalf("mark failed: %d %v", attempts, err)
	}
	if err := repo.MarkSent(ctx, ev.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	due, err := repo.ListDue(ctx, 500, 5)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	for _, d := range due {
		if d.ID == ev.ID {
			t.Fatalf("sent event must not be due")
		}
	}
	if err := repo.MarkDead(ctx, uuid.NewString(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	name := "Rollback " + uuid.NewString()[:8]
	boom := errors.New("stop after insert")

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		jt := &models.JobTitle{Name: name, HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(1))}
		if err := NewStaffRepository(db).CreateJobTitle(ctx, tx, jt); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_titles WHERE name = $1`, name).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rolled back insert must not be visible, found %d", n)
	}
}
