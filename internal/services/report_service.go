package services

import (
	"context"
	"time"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/internal/scheduling"
)

// ReportService builds the staff dashboard.
type ReportService interface {
	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo  repositories.ReportRepository
	bookingRepo repositories.BookingRepository
	loc         *time.Location
	now         func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository, bookingRepo repositories.BookingRepository, loc *time.Location) ReportService {
	return &reportService{reportRepo: reportRepo, bookingRepo: bookingRepo, loc: loc, now: time.Now}
}

func (s *reportService) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	dayStart, dayEnd := scheduling.DayBounds(now, s.loc)
	monthStart := time.Date(dayStart.Year(), dayStart.Month(), 1, 0, 0, 0, 0, dayStart.Location())

	stats, err := s.bookingRepo.Statistics(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	summary := &models.DashboardSummary{Date: dayStart.Format("2006-01-02"), BookingsToday: stats}
	if summary.UpcomingBookings, err = s.reportRepo.CountUpcomingBookings(ctx, now); err != nil {
		return nil, err
	}
	if summary.RevenueToday, err = s.reportRepo.Revenue(ctx, dayStart, dayEnd); err != nil {
		return nil, err
	}
	if summary.RevenueThisMonth, err = s.reportRepo.Revenue(ctx, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}
	if summary.UnpaidInvoices, err = s.reportRepo.CountUnpaidInvoices(ctx); err != nil {
		return nil, err
	}
	if summary.ActiveStaff, err = s.reportRepo.CountActiveStaff(ctx); err != nil {
		return nil, err
	}
	return summary, nil
}
