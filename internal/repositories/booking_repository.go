package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"spa_backend/internal/models"
	"spa_backend/internal/scheduling"
)

// BookingRepository defines the interface for booking-related database operations.
type BookingRepository interface {
	CreateBooking(ctx context.Context, executor SQLExecutor, b *models.Booking) error
	GetBookingByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error)
	GetBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error)
	ListStaffBookings(ctx context.Context, executor SQLExecutor, staffID int64, from, to time.Time) ([]models.Booking, error)
	CountStaffBookings(ctx context.Context, executor SQLExecutor, staffIDs []int64, from, to time.Time) (map[int64]int, error)
	UpdateBooking(ctx context.Context, executor SQLExecutor, b *models.Booking) error
	ReplaceLines(ctx context.Context, executor SQLExecutor, bookingID int64, serviceIDs []int64) error
	UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.BookingStatus) error
	Statistics(ctx context.Context, from, to time.Time) (models.BookingStatistics, error)
}

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingSelect = `SELECT b.id, b.customer_id, c.full_name, c.email, b.staff_id, st.full_name, b.start_time, b.status, b.notes, b.created_at, b.updated_at
FROM bookings b
JOIN customers c ON c.id = b.customer_id
LEFT JOIN staff_members st ON st.id = b.staff_id`

func scanBooking(sc scanner) (*models.Booking, error) {
	b := &models.Booking{}
	var staffName sql.NullString
	err := sc.Scan(&b.ID, &b.CustomerID, &b.CustomerName, &b.CustomerEmail, &b.StaffID, &staffName, &b.StartTime, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if staffName.Valid {
		b.StaffName = &staffName.String
	}
	return b, nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "listing bookings")
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, dbError(err, "scanning booking")
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating bookings")
	}
	if err := attachLines(ctx, executor, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// attachLines loads the service lines of the bookings and derives their end times.
func attachLines(ctx context.Context, executor SQLExecutor, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]int64, len(bookings))
	index := make(map[int64]int, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		index[b.ID] = i
		bookings[i].Lines = []models.BookingLine{}
	}
	rows, err := executor.QueryContext(ctx, `SELECT bl.booking_id, s.id, s.name, s.duration_minutes, s.price
		FROM booking_lines bl JOIN spa_services s ON s.id = bl.service_id
		WHERE bl.booking_id = ANY($1) ORDER BY bl.booking_id, s.name`, pq.Array(ids))
	if err != nil {
		return dbError(err, "loading booking lines")
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID int64
		var l models.BookingLine
		if err := rows.Scan(&bookingID, &l.ServiceID, &l.ServiceName, &l.DurationMinutes, &l.Price); err != nil {
			return dbError(err, "scanning booking line")
		}
		i := index[bookingID]
		bookings[i].Lines = append(bookings[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return dbError(err, "iterating booking lines")
	}
	for i := range bookings {
		bookings[i].EndTime = scheduling.BookingInterval(bookings[i]).End
	}
	return nil
}

// CreateBooking inserts the booking and one line per service.
func (r *bookingRepository) CreateBooking(ctx context.Context, executor SQLExecutor, b *models.Booking) error {
	query := `INSERT INTO bookings (customer_id, staff_id, start_time, status, notes)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, b.CustomerID, b.StaffID, b.StartTime, b.Status, b.Notes).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return dbError(err, "creating booking")
	}
	return r.ReplaceLines(ctx, executor, b.ID, b.ServiceIDs())
}

// GetBookingByID retrieves a booking with its lines. Inside a transaction the booking row is locked.
func (r *bookingRepository) GetBookingByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.id = $1`
	if executor == nil {
		executor = r.db
	} else {
		query += ` FOR UPDATE OF b`
	}
	b, err := scanBooking(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting booking %d", id))
	}
	bookings := []models.Booking{*b}
	if err := attachLines(ctx, executor, bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

// GetBookings retrieves bookings matching the filters, newest start first, with the total count.
func (r *bookingRepository) GetBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error) {
	var conditions []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filters.CustomerID != nil {
		add("b.customer_id = $%d", *filters.CustomerID)
	}
	if filters.StaffID != nil {
		add("b.staff_id = $%d", *filters.StaffID)
	}
	if filters.Status != nil {
		add("b.status = $%d", *filters.Status)
	}
	if filters.DateFrom != nil {
		add("b.start_time >= $%d", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		add("b.start_time < $%d", *filters.DateTo)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings b` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dbError(err, "counting bookings")
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize)
	args = append(args, limit, offset)
	query := bookingSelect + where + fmt.Sprintf(` ORDER BY b.start_time DESC, b.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	bookings, err := r.queryBookings(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListStaffBookings returns the blocking bookings of a staff member starting in [from, to).
func (r *bookingRepository) ListStaffBookings(ctx context.Context, executor SQLExecutor, staffID int64, from, to time.Time) ([]models.Booking, error) {
	if executor == nil {
		executor = r.db
	}
	query := bookingSelect + ` WHERE b.staff_id = $1 AND b.start_time >= $2 AND b.start_time < $3
		AND b.status IN ('pending', 'confirmed', 'in_progress') ORDER BY b.start_time ASC`
	return r.queryBookings(ctx, executor, query, staffID, from, to)
}

// CountStaffBookings counts non-cancelled bookings per staff member starting in [from, to).
// Staff without bookings are absent from the map.
func (r *bookingRepository) CountStaffBookings(ctx context.Context, executor SQLExecutor, staffIDs []int64, from, to time.Time) (map[int64]int, error) {
	if executor == nil {
		executor = r.db
	}
	counts := make(map[int64]int, len(staffIDs))
	if len(staffIDs) == 0 {
		return counts, nil
	}
	rows, err := executor.QueryContext(ctx, `SELECT staff_id, COUNT(*) FROM bookings
		WHERE staff_id = ANY($1) AND start_time >= $2 AND start_time < $3 AND status <> 'cancelled'
		GROUP BY staff_id`, pq.Array(staffIDs), from, to)
	if err != nil {
		return nil, dbError(err, "counting staff bookings")
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, dbError(err, "scanning staff booking count")
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating staff booking counts")
	}
	return counts, nil
}

// UpdateBooking saves start time, staff, status and notes.
func (r *bookingRepository) UpdateBooking(ctx context.Context, executor SQLExecutor, b *models.Booking) error {
	query := `UPDATE bookings SET staff_id = $1, start_time = $2, status = $3, notes = $4, updated_at = now()
	          WHERE id = $5 RETURNING updated_at`
	if err := executor.QueryRowContext(ctx, query, b.StaffID, b.StartTime, b.Status, b.Notes, b.ID).Scan(&b.UpdatedAt); err != nil {
		return dbError(err, fmt.Sprintf("updating booking %d", b.ID))
	}
	return nil
}

func (r *bookingRepository) ReplaceLines(ctx context.Context, executor SQLExecutor, bookingID int64, serviceIDs []int64) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM booking_lines WHERE booking_id = $1`, bookingID); err != nil {
		return dbError(err, "clearing booking lines")
	}
	if len(serviceIDs) == 0 {
		return nil
	}
	_, err := executor.ExecContext(ctx, `INSERT INTO booking_lines (booking_id, service_id)
		SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`, bookingID, pq.Array(serviceIDs))
	if err != nil {
		return dbError(err, "inserting booking lines")
	}
	return nil
}

// UpdateStatus moves a booking from one status to another, failing with ErrStaleStatus if it is no longer in from.
func (r *bookingRepository) UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.BookingStatus) error {
	res, err := executor.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`, to, id, from)
	if err := expectAffected(res, err, "updating booking status"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrStaleStatus
		}
		return err
	}
	return nil
}

// Statistics counts bookings per status starting in [from, to).
func (r *bookingRepository) Statistics(ctx context.Context, from, to time.Time) (models.BookingStatistics, error) {
	var st models.BookingStatistics
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings WHERE start_time >= $1 AND start_time < $2 GROUP BY status`, from, to)
	if err != nil {
		return st, dbError(err, "booking statistics")
	}
	defer rows.Close()
	for rows.Next() {
		var status models.BookingStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return st, dbError(err, "scanning booking statistics")
		}
		st.Total += n
		switch status {
		case models.BookingStatusPending:
			st.Pending = n
		case models.BookingStatusConfirmed:
			st.Confirmed = n
		case models.BookingStatusInProgress:
			st.InProgress = n
		case models.BookingStatusCompleted:
			st.Completed = n
		case models.BookingStatusCancelled:
			st.Cancelled = n
		}
	}
	if err := rows.Err(); err != nil {
		return st, dbError(err, "iterating booking statistics")
	}
	return st, nil
}
