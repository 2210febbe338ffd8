package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ReportRepository runs the aggregate queries behind the dashboard.
type ReportRepository interface {
	Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountUpcomingBookings(ctx context.Context, after time.Time) (int, error)
	CountUnpaidInvoices(ctx context.Context) (int, error)
	CountActiveStaff(ctx context.Context) (int, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Revenue sums payments received in [from, to).
func (r *reportRepository) Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= $1 AND paid_at < $2`, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, dbError(err, "summing revenue")
	}
	return total, nil
}

// CountUpcomingBookings counts pending or confirmed bookings starting after the given instant.
func (r *reportRepository) CountUpcomingBookings(ctx context.Context, after time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE start_time > $1 AND status IN ('pending', 'confirmed')`, after)
}

func (r *reportRepository) CountUnpaidInvoices(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM invoices WHERE status = 'unpaid'`)
}

func (r *reportRepository) CountActiveStaff(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM staff_members WHERE is_active`)
}

func (r *reportRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbError(err, "counting")
	}
	return n, nil
}
