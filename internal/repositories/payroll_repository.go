package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
)

// PayrollRepository stores per-shift ledger rows and the monthly aggregates derived from them.
// Every method takes an executor because mutations run inside the caller's transaction.
type PayrollRepository interface {
	GetLedgerRow(ctx context.Context, executor SQLExecutor, staffID, shiftID int64) (*models.LedgerRow, error)
	GetLedgerRowByID(ctx context.Context, executor SQLExecutor, id int64) (*models.LedgerRow, error)
	InsertLedgerRow(ctx context.Context, executor SQLExecutor, row *models.LedgerRow) error
	UpdateLedgerAdjustments(ctx context.Context, executor SQLExecutor, id int64, bonus, deduction decimal.Decimal) error
	DeleteLedgerRow(ctx context.Context, executor SQLExecutor, id int64) error
	ListLedgerRows(ctx context.Context, executor SQLExecutor, staffID int64, month, year int) ([]models.LedgerRow, error)
	ListShiftLedgerRows(ctx context.Context, executor SQLExecutor, shiftID int64) ([]models.LedgerRow, error)

	EnsureMonthly(ctx context.Context, executor SQLExecutor, staffID int64, month, year int) (*models.MonthlyPayroll, error)
	SaveMonthly(ctx context.Context, executor SQLExecutor, p *models.MonthlyPayroll) error
	ListMonthly(ctx context.Context, filters models.PayrollFilters) ([]models.MonthlyPayroll, error)
	ListStaffInMonth(ctx context.Context, executor SQLExecutor, month, year int) ([]int64, error)
}

type payrollRepository struct {
	db *sql.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sql.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

const ledgerSelect = `SELECT id, staff_id, shift_id, work_date, hours, hourly_rate, base, bonus, deduction, payroll_id, created_at, updated_at
FROM payroll_ledger`

// monthFilter matches work_date inside the calendar month given by the two following parameters.
const monthFilter = `work_date >= make_date($%d, $%d, 1) AND work_date < make_date($%d, $%d, 1) + INTERVAL '1 month'`

func scanLedgerRow(sc scanner) (*models.LedgerRow, error) {
	row := &models.LedgerRow{}
	err := sc.Scan(&row.ID, &row.StaffID, &row.ShiftID, &row.WorkDate, &row.Hours, &row.HourlyRate,
		&row.Base, &row.Bonus, &row.Deduction, &row.PayrollID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func queryLedger(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.LedgerRow, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "listing ledger rows")
	}
	defer rows.Close()
	out := []models.LedgerRow{}
	for rows.Next() {
		row, err := scanLedgerRow(rows)
		if err != nil {
			return nil, dbError(err, "scanning ledger row")
		}
		out = append(out, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating ledger rows")
	}
	return out, nil
}

func (r *payrollRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

func (r *payrollRepository) GetLedgerRow(ctx context.Context, executor SQLExecutor, staffID, shiftID int64) (*models.LedgerRow, error) {
	row, err := scanLedgerRow(r.exec(executor).QueryRowContext(ctx, ledgerSelect+` WHERE staff_id = $1 AND shift_id = $2`, staffID, shiftID))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting ledger row staff %d shift %d", staffID, shiftID))
	}
	return row, nil
}

func (r *payrollRepository) GetLedgerRowByID(ctx context.Context, executor SQLExecutor, id int64) (*models.LedgerRow, error) {
	row, err := scanLedgerRow(r.exec(executor).QueryRowContext(ctx, ledgerSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting ledger row %d", id))
	}
	return row, nil
}

// InsertLedgerRow fails with ErrDuplicateKey if (staff, shift) is already recorded.
func (r *payrollRepository) InsertLedgerRow(ctx context.Context, executor SQLExecutor, row *models.LedgerRow) error {
	query := `INSERT INTO payroll_ledger (staff_id, shift_id, work_date, hours, hourly_rate, base, bonus, deduction, payroll_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, row.StaffID, row.ShiftID, row.WorkDate.Format("2006-01-02"), row.Hours, row.HourlyRate,
		row.Base, row.Bonus, row.Deduction, row.PayrollID).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return dbError(err, "inserting ledger row")
	}
	return nil
}

func (r *payrollRepository) UpdateLedgerAdjustments(ctx context.Context, executor SQLExecutor, id int64, bonus, deduction decimal.Decimal) error {
	res, err := executor.ExecContext(ctx, `UPDATE payroll_ledger SET bonus = $1, deduction = $2, updated_at = now() WHERE id = $3`, bonus, deduction, id)
	return expectAffected(res, err, "adjusting ledger row")
}

func (r *payrollRepository) DeleteLedgerRow(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM payroll_ledger WHERE id = $1`, id)
	return expectAffected(res, err, "deleting ledger row")
}

// ListLedgerRows returns a staff member's rows for one calendar month ordered by work date.
func (r *payrollRepository) ListLedgerRows(ctx context.Context, executor SQLExecutor, staffID int64, month, year int) ([]models.LedgerRow, error) {
	query := ledgerSelect + ` WHERE staff_id = $1 AND ` + fmt.Sprintf(monthFilter, 2, 3, 2, 3) + ` ORDER BY work_date ASC, id ASC`
	return queryLedger(ctx, r.exec(executor), query, staffID, year, month)
}

func (r *payrollRepository) ListShiftLedgerRows(ctx context.Context, executor SQLExecutor, shiftID int64) ([]models.LedgerRow, error) {
	return queryLedger(ctx, r.exec(executor), ledgerSelect+` WHERE shift_id = $1 ORDER BY staff_id ASC`, shiftID)
}

const monthlySelect = `SELECT mp.id, mp.staff_id, st.full_name, mp.month, mp.year, mp.base, mp.bonus, mp.deduction, mp.total, mp.created_at, mp.updated_at
FROM monthly_payrolls mp JOIN staff_members st ON st.id = mp.staff_id`

func scanMonthly(sc scanner) (*models.MonthlyPayroll, error) {
	p := &models.MonthlyPayroll{}
	err := sc.Scan(&p.ID, &p.StaffID, &p.StaffName, &p.Month, &p.Year, &p.Base, &p.Bonus, &p.Deduction, &p.Total, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureMonthly creates the zero-initialized record for (staff, month, year) if missing
// and returns it locked for update.
func (r *payrollRepository) EnsureMonthly(ctx context.Context, executor SQLExecutor, staffID int64, month, year int) (*models.MonthlyPayroll, error) {
	_, err := executor.ExecContext(ctx, `INSERT INTO monthly_payrolls (staff_id, month, year) VALUES ($1, $2, $3)
		ON CONFLICT (staff_id, month, year) DO NOTHING`, staffID, month, year)
	if err != nil {
		return nil, dbError(err, "creating monthly payroll")
	}
	p, err := scanMonthly(executor.QueryRowContext(ctx, monthlySelect+` WHERE mp.staff_id = $1 AND mp.month = $2 AND mp.year = $3 FOR UPDATE OF mp`, staffID, month, year))
	if err != nil {
		return nil, dbError(err, "locking monthly payroll")
	}
	return p, nil
}

// SaveMonthly writes the aggregate fields and links the month's ledger rows to the record.
func (r *payrollRepository) SaveMonthly(ctx context.Context, executor SQLExecutor, p *models.MonthlyPayroll) error {
	query := `UPDATE monthly_payrolls SET base = $1, bonus = $2, deduction = $3, total = $4, updated_at = now()
	          WHERE id = $5 RETURNING updated_at`
	if err := executor.QueryRowContext(ctx, query, p.Base, p.Bonus, p.Deduction, p.Total, p.ID).Scan(&p.UpdatedAt); err != nil {
		return dbError(err, fmt.Sprintf("saving monthly payroll %d", p.ID))
	}
	link := `UPDATE payroll_ledger SET payroll_id = $1 WHERE staff_id = $2 AND payroll_id IS DISTINCT FROM $1 AND ` + fmt.Sprintf(monthFilter, 3, 4, 3, 4)
	if _, err := executor.ExecContext(ctx, link, p.ID, p.StaffID, p.Year, p.Month); err != nil {
		return dbError(err, "linking ledger rows")
	}
	return nil
}

// ListMonthly returns monthly records of non-admin staff.
func (r *payrollRepository) ListMonthly(ctx context.Context, filters models.PayrollFilters) ([]models.MonthlyPayroll, error) {
	conditions := []string{"st.role <> 'admin'"}
	var args []interface{}
	if filters.Month != nil {
		args = append(args, *filters.Month)
		conditions = append(conditions, fmt.Sprintf("mp.month = $%d", len(args)))
	}
	if filters.Year != nil {
		args = append(args, *filters.Year)
		conditions = append(conditions, fmt.Sprintf("mp.year = $%d", len(args)))
	}
	if filters.StaffID != nil {
		args = append(args, *filters.StaffID)
		conditions = append(conditions, fmt.Sprintf("mp.staff_id = $%d", len(args)))
	}
	query := monthlySelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY mp.year DESC, mp.month DESC, st.full_name ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "listing monthly payrolls")
	}
	defer rows.Close()

	out := []models.MonthlyPayroll{}
	for rows.Next() {
		p, err := scanMonthly(rows)
		if err != nil {
			return nil, dbError(err, "scanning monthly payroll")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating monthly payrolls")
	}
	return out, nil
}

// ListStaffInMonth returns every staff id that has ledger rows or a monthly record in the month.
func (r *payrollRepository) ListStaffInMonth(ctx context.Context, executor SQLExecutor, month, year int) ([]int64, error) {
	query := `SELECT staff_id FROM payroll_ledger WHERE ` + fmt.Sprintf(monthFilter, 1, 2, 1, 2) + `
		UNION SELECT staff_id FROM monthly_payrolls WHERE year = $1 AND month = $2
		ORDER BY staff_id`
	rows, err := r.exec(executor).QueryContext(ctx, query, year, month)
	if err != nil {
		return nil, dbError(err, "listing staff in month")
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbError(err, "scanning staff id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating staff ids")
	}
	return ids, nil
}
