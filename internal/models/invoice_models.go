package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodMoMo PaymentMethod = "momo"
)

// Invoice bills the services of one completed booking.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	BookingID     int64           `json:"booking_id" db:"booking_id"`
	CustomerID    int64           `json:"customer_id" db:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail *string         `json:"-"`
	StaffID       *int64          `json:"staff_id,omitempty" db:"staff_id"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Lines         []InvoiceLine   `json:"lines,omitempty"`
	Payments      []Payment       `json:"payments,omitempty"`
}

// InvoiceLine snapshots a service price at invoicing time.
type InvoiceLine struct {
	ID          int64           `json:"id" db:"id"`
	InvoiceID   int64           `json:"invoice_id" db:"invoice_id"`
	ServiceID   int64           `json:"service_id" db:"service_id"`
	ServiceName string          `json:"service_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
}

type Payment struct {
	ID        int64           `json:"id" db:"id"`
	InvoiceID int64           `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    PaymentMethod   `json:"method" db:"method"`
	Note      *string         `json:"note,omitempty" db:"note"`
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
}

// InvoiceFilters defines the available filters for querying invoices.
type InvoiceFilters struct {
	CustomerID *int64
	Status     *InvoiceStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
}

// InvoiceStats summarizes invoices in a date range. Revenue counts paid invoices only.
type InvoiceStats struct {
	Total   int             `json:"total"`
	Paid    int             `json:"paid"`
	Unpaid  int             `json:"unpaid"`
	Revenue decimal.Decimal `json:"revenue"`
}

// PaymentLink is what the gateway returns for an online payment.
type PaymentLink struct {
	OrderID   string `json:"order_id"`
	PayURL    string `json:"pay_url"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
	Deeplink  string `json:"deeplink,omitempty"`
}
