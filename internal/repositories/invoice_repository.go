package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"spa_backend/internal/models"
)

// InvoiceRepository defines database operations for invoices, their lines and payments.
type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, executor SQLExecutor, inv *models.Invoice) error
	GetInvoiceByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Invoice, error)
	GetInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, error)
	Stats(ctx context.Context, filters models.InvoiceFilters) (models.InvoiceStats, error)
	InsertPayment(ctx context.Context, executor SQLExecutor, p *models.Payment) error
	MarkPaid(ctx context.Context, executor SQLExecutor, id int64) error
}

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceSelect = `SELECT i.id, i.booking_id, i.customer_id, c.full_name, c.email, i.staff_id, i.total, i.status, i.created_at, i.updated_at
FROM invoices i JOIN customers c ON c.id = i.customer_id`

func scanInvoice(sc scanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := sc.Scan(&inv.ID, &inv.BookingID, &inv.CustomerID, &inv.CustomerName, &inv.CustomerEmail, &inv.StaffID, &inv.Total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvoice inserts the header and its lines. A second invoice for the same booking fails with ErrDuplicateKey.
func (r *invoiceRepository) CreateInvoice(ctx context.Context, executor SQLExecutor, inv *models.Invoice) error {
	query := `INSERT INTO invoices (booking_id, customer_id, staff_id, total, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, inv.BookingID, inv.CustomerID, inv.StaffID, inv.Total, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return dbError(err, "creating invoice")
	}
	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.InvoiceID = inv.ID
		err := executor.QueryRowContext(ctx, `INSERT INTO invoice_lines (invoice_id, service_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`, l.InvoiceID, l.ServiceID, l.Quantity, l.UnitPrice, l.LineTotal).Scan(&l.ID)
		if err != nil {
			return dbError(err, "creating invoice line")
		}
	}
	return nil
}

// GetInvoiceByID loads an invoice with lines and payments. Inside a transaction the invoice row is locked.
func (r *invoiceRepository) GetInvoiceByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Invoice, error) {
	query := invoiceSelect + ` WHERE i.id = $1`
	if executor == nil {
		executor = r.db
	} else {
		query += ` FOR UPDATE OF i`
	}
	inv, err := scanInvoice(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting invoice %d", id))
	}
	invoices := []models.Invoice{*inv}
	if err := attachInvoiceDetails(ctx, executor, invoices); err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

func attachInvoiceDetails(ctx context.Context, executor SQLExecutor, invoices []models.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]int64, len(invoices))
	index := make(map[int64]int, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		index[inv.ID] = i
		invoices[i].Lines = []models.InvoiceLine{}
		invoices[i].Payments = []models.Payment{}
	}

	rows, err := executor.QueryContext(ctx, `SELECT l.id, l.invoice_id, l.service_id, s.name, l.quantity, l.unit_price, l.line_total
		FROM invoice_lines l JOIN spa_services s ON s.id = l.service_id
		WHERE l.invoice_id = ANY($1) ORDER BY l.id`, pq.Array(ids))
	if err != nil {
		return dbError(err, "loading invoice lines")
	}
	for rows.Next() {
		var l models.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ServiceID, &l.ServiceName, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			rows.Close()
			return dbError(err, "scanning invoice line")
		}
		i := index[l.InvoiceID]
		invoices[i].Lines = append(invoices[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return dbError(err, "iterating invoice lines")
	}
	rows.Close()

	rows, err = executor.QueryContext(ctx, `SELECT id, invoice_id, amount, method, note, paid_at
		FROM payments WHERE invoice_id = ANY($1) ORDER BY paid_at`, pq.Array(ids))
	if err != nil {
		return dbError(err, "loading payments")
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Note, &p.PaidAt); err != nil {
			return dbError(err, "scanning payment")
		}
		i := index[p.InvoiceID]
		invoices[i].Payments = append(invoices[i].Payments, p)
	}
	if err := rows.Err(); err != nil {
		return dbError(err, "iterating payments")
	}
	return nil
}

func invoiceConditions(filters models.InvoiceFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filters.CustomerID != nil {
		args = append(args, *filters.CustomerID)
		conditions = append(conditions, fmt.Sprintf("i.customer_id = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		conditions = append(conditions, fmt.Sprintf("i.created_at >= $%d", len(args)))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		conditions = append(conditions, fmt.Sprintf("i.created_at < $%d", len(args)))
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.full_name) LIKE $%d OR c.phone_number LIKE $%d OR CAST(i.id AS TEXT) LIKE $%d)", len(args), len(args), len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// GetInvoices lists invoices newest first with their lines and payments.
func (r *invoiceRepository) GetInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, error) {
	where, args := invoiceConditions(filters)
	rows, err := r.db.QueryContext(ctx, invoiceSelect+where+` ORDER BY i.created_at DESC, i.id DESC`, args...)
	if err != nil {
		return nil, dbError(err, "listing invoices")
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, dbError(err, "scanning invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating invoices")
	}
	if err := attachInvoiceDetails(ctx, r.db, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Stats counts invoices matching the filters. Revenue sums totals of paid invoices only.
func (r *invoiceRepository) Stats(ctx context.Context, filters models.InvoiceFilters) (models.InvoiceStats, error) {
	where, args := invoiceConditions(filters)
	var st models.InvoiceStats
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE i.status = 'paid'),
		COUNT(*) FILTER (WHERE i.status = 'unpaid'),
		COALESCE(SUM(i.total) FILTER (WHERE i.status = 'paid'), 0)
		FROM invoices i JOIN customers c ON c.id = i.customer_id` + where
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&st.Total, &st.Paid, &st.Unpaid, &st.Revenue); err != nil {
		return st, dbError(err, "invoice stats")
	}
	return st, nil
}

func (r *invoiceRepository) InsertPayment(ctx context.Context, executor SQLExecutor, p *models.Payment) error {
	query := `INSERT INTO payments (invoice_id, amount, method, note) VALUES ($1, $2, $3, $4) RETURNING id, paid_at`
	if err := executor.QueryRowContext(ctx, query, p.InvoiceID, p.Amount, p.Method, p.Note).Scan(&p.ID, &p.PaidAt); err != nil {
		return dbError(err, "recording payment")
	}
	return nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `UPDATE invoices SET status = 'paid', updated_at = now() WHERE id = $1`, id)
	return expectAffected(res, err, "marking invoice paid")
}
