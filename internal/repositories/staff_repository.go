package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
)

// StaffRepository defines database operations for staff members and job titles.
type StaffRepository interface {
	CreateStaff(ctx context.Context, executor SQLExecutor, s *models.StaffMember) error
	GetStaffByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error)
	ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.StaffMember, error)
	ListActiveTechnicians(ctx context.Context, executor SQLExecutor) ([]models.StaffMember, error)
	UpdateStaff(ctx context.Context, executor SQLExecutor, s *models.StaffMember) error
	SetStaffActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error

	CreateJobTitle(ctx context.Context, executor SQLExecutor, jt *models.JobTitle) error
	GetJobTitleByID(ctx context.Context, id int64) (*models.JobTitle, error)
	ListJobTitles(ctx context.Context) ([]models.JobTitle, error)
	UpdateJobTitle(ctx context.Context, executor SQLExecutor, jt *models.JobTitle) error
	DeleteJobTitle(ctx context.Context, executor SQLExecutor, id int64) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

const staffSelect = `SELECT s.id, s.full_name, s.username, s.email, s.phone_number, s.password_hash, s.role,
       s.job_title_id, s.is_active, s.created_at, s.updated_at,
       jt.id, jt.name, jt.hourly_rate
FROM staff_members s
LEFT JOIN job_titles jt ON jt.id = s.job_title_id`

func scanStaff(sc scanner) (*models.StaffMember, error) {
	s := &models.StaffMember{}
	var (
		jtID   sql.NullInt64
		jtName sql.NullString
		jtRate decimal.NullDecimal
	)
	err := sc.Scan(&s.ID, &s.FullName, &s.Username, &s.Email, &s.PhoneNumber, &s.PasswordHash, &s.Role,
		&s.JobTitleID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt, &jtID, &jtName, &jtRate)
	if err != nil {
		return nil, err
	}
	if jtID.Valid {
		s.JobTitle = &models.JobTitle{ID: jtID.Int64, Name: jtName.String, HourlyRate: jtRate}
	}
	return s, nil
}

func collectStaff(rows *sql.Rows) ([]models.StaffMember, error) {
	staff := []models.StaffMember{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, dbError(err, "scanning staff")
		}
		staff = append(staff, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating staff")
	}
	return staff, nil
}

// CreateStaff inserts a new staff member.
func (r *staffRepository) CreateStaff(ctx context.Context, executor SQLExecutor, s *models.StaffMember) error {
	query := `INSERT INTO staff_members (full_name, username, email, phone_number, password_hash, role, job_title_id, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, s.FullName, s.Username, s.Email, s.PhoneNumber, s.PasswordHash, s.Role, s.JobTitleID, s.IsActive).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return dbError(err, "creating staff member")
	}
	return nil
}

// GetStaffByID retrieves a staff member with job title.
func (r *staffRepository) GetStaffByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error) {
	if executor == nil {
		executor = r.db
	}
	s, err := scanStaff(executor.QueryRowContext(ctx, staffSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting staff %d", id))
	}
	return s, nil
}

// ListStaff retrieves staff members matching the filters, ordered by name.
func (r *staffRepository) ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.StaffMember, error) {
	var conditions []string
	var args []interface{}
	if filters.Role != nil {
		args = append(args, *filters.Role)
		conditions = append(conditions, fmt.Sprintf("s.role = $%d", len(args)))
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "s.is_active")
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.username) LIKE $%d)", len(args), len(args)))
	}
	query := staffSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, query+" ORDER BY s.full_name ASC, s.id ASC", args...)
	if err != nil {
		return nil, dbError(err, "listing staff")
	}
	defer rows.Close()
	return collectStaff(rows)
}

// ListActiveTechnicians returns the auto-assignment pool ordered by id.
func (r *staffRepository) ListActiveTechnicians(ctx context.Context, executor SQLExecutor) ([]models.StaffMember, error) {
	if executor == nil {
		executor = r.db
	}
	rows, err := executor.QueryContext(ctx, staffSelect+` WHERE s.is_active AND s.role = $1 ORDER BY s.id ASC`, models.RoleTechnician)
	if err != nil {
		return nil, dbError(err, "listing active technicians")
	}
	defer rows.Close()
	return collectStaff(rows)
}

func (r *staffRepository) UpdateStaff(ctx context.Context, executor SQLExecutor, s *models.StaffMember) error {
	query := `UPDATE staff_members SET full_name = $1, email = $2, phone_number = $3, role = $4, job_title_id = $5, is_active = $6, updated_at = now()
	          WHERE id = $7 RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query, s.FullName, s.Email, s.PhoneNumber, s.Role, s.JobTitleID, s.IsActive, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		return dbError(err, fmt.Sprintf("updating staff %d", s.ID))
	}
	return nil
}

// SetStaffActive is the soft delete for staff members.
func (r *staffRepository) SetStaffActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	res, err := executor.ExecContext(ctx, `UPDATE staff_members SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
	return expectAffected(res, err, "setting staff active")
}

const jobTitleSelect = `SELECT id, name, description, hourly_rate, created_at, updated_at FROM job_titles`

func scanJobTitle(sc scanner) (*models.JobTitle, error) {
	jt := &models.JobTitle{}
	if err := sc.Scan(&jt.ID, &jt.Name, &jt.Description, &jt.HourlyRate, &jt.CreatedAt, &jt.UpdatedAt); err != nil {
		return nil, err
	}
	return jt, nil
}

func (r *staffRepository) CreateJobTitle(ctx context.Context, executor SQLExecutor, jt *models.JobTitle) error {
	query := `INSERT INTO job_titles (name, description, hourly_rate) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err := executor.QueryRowContext(ctx, query, jt.Name, jt.Description, jt.HourlyRate).Scan(&jt.ID, &jt.CreatedAt, &jt.UpdatedAt); err != nil {
		return dbError(err, "creating job title")
	}
	return nil
}

func (r *staffRepository) GetJobTitleByID(ctx context.Context, id int64) (*models.JobTitle, error) {
	jt, err := scanJobTitle(r.db.QueryRowContext(ctx, jobTitleSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting job title %d", id))
	}
	return jt, nil
}

func (r *staffRepository) ListJobTitles(ctx context.Context) ([]models.JobTitle, error) {
	rows, err := r.db.QueryContext(ctx, jobTitleSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, dbError(err, "listing job titles")
	}
	defer rows.Close()

	titles := []models.JobTitle{}
	for rows.Next() {
		jt, err := scanJobTitle(rows)
		if err != nil {
			return nil, dbError(err, "scanning job title")
		}
		titles = append(titles, *jt)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating job titles")
	}
	return titles, nil
}

func (r *staffRepository) UpdateJobTitle(ctx context.Context, executor SQLExecutor, jt *models.JobTitle) error {
	query := `UPDATE job_titles SET name = $1, description = $2, hourly_rate = $3, updated_at = now() WHERE id = $4 RETURNING updated_at`
	if err := executor.QueryRowContext(ctx, query, jt.Name, jt.Description, jt.HourlyRate, jt.ID).Scan(&jt.UpdatedAt); err != nil {
		return dbError(err, fmt.Sprintf("updating job title %d", jt.ID))
	}
	return nil
}

// DeleteJobTitle fails with ErrForeignKeyViolation while any staff member holds the title.
func (r *staffRepository) DeleteJobTitle(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM job_titles WHERE id = $1`, id)
	return expectAffected(res, err, "deleting job title")
}
