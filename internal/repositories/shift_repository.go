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
)

// ShiftRepository defines database operations for shifts, their staff assignments and registrations.
type ShiftRepository interface {
	CreateShift(ctx context.Context, executor SQLExecutor, s *models.Shift) error
	GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error)
	ListShifts(ctx context.Context, from, to time.Time, staffID *int64) ([]models.Shift, error)
	UpdateShift(ctx context.Context, executor SQLExecutor, s *models.Shift) error
	DeleteShift(ctx context.Context, executor SQLExecutor, id int64) error

	AssignStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) error
	UnassignStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) error
	ListAssignedStaffIDs(ctx context.Context, executor SQLExecutor, shiftID int64) ([]int64, error)

	CreateRegistration(ctx context.Context, executor SQLExecutor, reg *models.ShiftRegistration) (bool, error)
	GetRegistrationByID(ctx context.Context, executor SQLExecutor, id int64) (*models.ShiftRegistration, error)
	ListRegistrations(ctx context.Context, status *models.RegistrationStatus, staffID *int64) ([]models.ShiftRegistration, error)
	UpdateRegistrationStatus(ctx context.Context, executor SQLExecutor, id int64, status models.RegistrationStatus) error
}

type shiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository(db *sql.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftSelect = `SELECT sh.id, sh.shift_date, to_char(sh.start_time, 'HH24:MI'), to_char(sh.end_time, 'HH24:MI'),
       sh.hours, sh.notes, sh.created_at, sh.updated_at
FROM shifts sh`

func scanShift(sc scanner) (*models.Shift, error) {
	s := &models.Shift{}
	if err := sc.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Hours, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *shiftRepository) CreateShift(ctx context.Context, executor SQLExecutor, s *models.Shift) error {
	query := `INSERT INTO shifts (shift_date, start_time, end_time, hours, notes)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, s.Date.Format("2006-01-02"), s.StartTime, s.EndTime, s.Hours, s.Notes).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return dbError(err, "creating shift")
	}
	return nil
}

// GetShiftByID retrieves a shift and the staff assigned to it.
func (r *shiftRepository) GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error) {
	if executor == nil {
		executor = r.db
	}
	s, err := scanShift(executor.QueryRowContext(ctx, shiftSelect+` WHERE sh.id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting shift %d", id))
	}
	shifts := []models.Shift{*s}
	if err := r.attachStaff(ctx, executor, shifts); err != nil {
		return nil, err
	}
	return &shifts[0], nil
}

// ListShifts returns shifts dated in [from, to), optionally only those assigned to staffID.
func (r *shiftRepository) ListShifts(ctx context.Context, from, to time.Time, staffID *int64) ([]models.Shift, error) {
	args := []interface{}{from.Format("2006-01-02"), to.Format("2006-01-02")}
	query := shiftSelect + ` WHERE sh.shift_date >= $1 AND sh.shift_date < $2`
	if staffID != nil {
		args = append(args, *staffID)
		query += ` AND EXISTS (SELECT 1 FROM shift_assignments sa WHERE sa.shift_id = sh.id AND sa.staff_id = $3)`
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY sh.shift_date ASC, sh.start_time ASC, sh.id ASC`, args...)
	if err != nil {
		return nil, dbError(err, "listing shifts")
	}
	defer rows.Close()

	shifts := []models.Shift{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, dbError(err, "scanning shift")
		}
		shifts = append(shifts, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating shifts")
	}
	if err := r.attachStaff(ctx, r.db, shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// attachStaff loads the assigned staff of every shift in one query.
func (r *shiftRepository) attachStaff(ctx context.Context, executor SQLExecutor, shifts []models.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	ids := make([]int64, len(shifts))
	index := make(map[int64]int, len(shifts))
	for i, s := range shifts {
		ids[i] = s.ID
		index[s.ID] = i
		shifts[i].Staff = []models.StaffRef{}
	}
	rows, err := executor.QueryContext(ctx, `SELECT sa.shift_id, st.id, st.full_name
		FROM shift_assignments sa JOIN staff_members st ON st.id = sa.staff_id
		WHERE sa.shift_id = ANY($1) ORDER BY st.full_name ASC`, pq.Array(ids))
	if err != nil {
		return dbError(err, "loading shift staff")
	}
	defer rows.Close()
	for rows.Next() {
		var shiftID int64
		var ref models.StaffRef
		if err := rows.Scan(&shiftID, &ref.ID, &ref.FullName); err != nil {
			return dbError(err, "scanning shift staff")
		}
		i := index[shiftID]
		shifts[i].Staff = append(shifts[i].Staff, ref)
	}
	if err := rows.Err(); err != nil {
		return dbError(err, "iterating shift staff")
	}
	return nil
}

func (r *shiftRepository) UpdateShift(ctx context.Context, executor SQLExecutor, s *models.Shift) error {
	query := `UPDATE shifts SET shift_date = $1, start_time = $2, end_time = $3, hours = $4, notes = $5, updated_at = now()
	          WHERE id = $6 RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query, s.Date.Format("2006-01-02"), s.StartTime, s.EndTime, s.Hours, s.Notes, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		return dbError(err, fmt.Sprintf("updating shift %d", s.ID))
	}
	return nil
}

// DeleteShift removes the shift; assignments and registrations cascade.
func (r *shiftRepository) DeleteShift(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	return expectAffected(res, err, "deleting shift")
}

// AssignStaff fails with ErrDuplicateKey when the staff member is already on the shift.
func (r *shiftRepository) AssignStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) error {
	_, err := executor.ExecContext(ctx, `INSERT INTO shift_assignments (shift_id, staff_id) VALUES ($1, $2)`, shiftID, staffID)
	if err != nil {
		return dbError(err, "assigning staff to shift")
	}
	return nil
}

func (r *shiftRepository) UnassignStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM shift_assignments WHERE shift_id = $1 AND staff_id = $2`, shiftID, staffID)
	return expectAffected(res, err, "unassigning staff from shift")
}

func (r *shiftRepository) ListAssignedStaffIDs(ctx context.Context, executor SQLExecutor, shiftID int64) ([]int64, error) {
	rows, err := executor.QueryContext(ctx, `SELECT staff_id FROM shift_assignments WHERE shift_id = $1 ORDER BY staff_id`, shiftID)
	if err != nil {
		return nil, dbError(err, "listing shift assignments")
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbError(err, "scanning shift assignment")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating shift assignments")
	}
	return ids, nil
}

// CreateRegistration inserts a pending registration. It reports false when the staff member had already registered.
func (r *shiftRepository) CreateRegistration(ctx context.Context, executor SQLExecutor, reg *models.ShiftRegistration) (bool, error) {
	query := `INSERT INTO shift_registrations (shift_id, staff_id, status) VALUES ($1, $2, $3)
	          ON CONFLICT (shift_id, staff_id) DO NOTHING
	          RETURNING id, created_at, updated_at`
	if reg.Status == "" {
		reg.Status = models.RegistrationPending
	}
	err := executor.QueryRowContext(ctx, query, reg.ShiftID, reg.StaffID, reg.Status).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, dbError(err, "creating shift registration")
	}
	return true, nil
}

const registrationSelect = `SELECT r.id, r.shift_id, r.staff_id, st.full_name, r.status, r.created_at, r.updated_at,
       sh.shift_date, to_char(sh.start_time, 'HH24:MI'), to_char(sh.end_time, 'HH24:MI'), sh.hours
FROM shift_registrations r
JOIN staff_members st ON st.id = r.staff_id
JOIN shifts sh ON sh.id = r.shift_id`

func scanRegistration(sc scanner) (*models.ShiftRegistration, error) {
	reg := &models.ShiftRegistration{Shift: &models.Shift{}}
	err := sc.Scan(&reg.ID, &reg.ShiftID, &reg.StaffID, &reg.StaffName, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt,
		&reg.Shift.Date, &reg.Shift.StartTime, &reg.Shift.EndTime, &reg.Shift.Hours)
	if err != nil {
		return nil, err
	}
	reg.Shift.ID = reg.ShiftID
	return reg, nil
}

// GetRegistrationByID locks the registration row when executor is a transaction.
func (r *shiftRepository) GetRegistrationByID(ctx context.Context, executor SQLExecutor, id int64) (*models.ShiftRegistration, error) {
	query := registrationSelect + ` WHERE r.id = $1`
	if executor == nil {
		executor = r.db
	} else {
		query += ` FOR UPDATE OF r`
	}
	reg, err := scanRegistration(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting shift registration %d", id))
	}
	return reg, nil
}

func (r *shiftRepository) ListRegistrations(ctx context.Context, status *models.RegistrationStatus, staffID *int64) ([]models.ShiftRegistration, error) {
	var conditions []string
	var args []interface{}
	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if staffID != nil {
		args = append(args, *staffID)
		conditions = append(conditions, fmt.Sprintf("r.staff_id = $%d", len(args)))
	}
	query := registrationSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY sh.shift_date ASC, sh.start_time ASC, r.id ASC`, args...)
	if err != nil {
		return nil, dbError(err, "listing shift registrations")
	}
	defer rows.Close()

	regs := []models.ShiftRegistration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, dbError(err, "scanning shift registration")
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating shift registrations")
	}
	return regs, nil
}

func (r *shiftRepository) UpdateRegistrationStatus(ctx context.Context, executor SQLExecutor, id int64, status models.RegistrationStatus) error {
	res, err := executor.ExecContext(ctx, `UPDATE shift_registrations SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return expectAffected(res, err, "updating shift registration")
}
