package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary holds key metrics for the dashboard.
type DashboardSummary struct {
	Date             string            `json:"date"`
	BookingsToday    BookingStatistics `json:"bookings_today"`
	UpcomingBookings int               `json:"upcoming_bookings"`
	RevenueToday     decimal.Decimal   `json:"revenue_today"`
	RevenueThisMonth decimal.Decimal   `json:"revenue_this_month"`
	UnpaidInvoices   int               `json:"unpaid_invoices"`
	ActiveStaff      int               `json:"active_staff"`
}

// ReportRequestParams holds common parameters for date-ranged reports.
type ReportRequestParams struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// DateRange is an inclusive-exclusive [From, To) window.
type DateRange struct {
	From time.Time
	To   time.Time
}
