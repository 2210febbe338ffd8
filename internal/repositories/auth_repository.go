package repositories

import (
	"context"
	"database/sql"
	"strings"

	"spa_backend/internal/models"
)

// AuthRepository looks up login principals and stores their password hashes.
type AuthRepository interface {
	FindStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error)
	FindCustomerByLogin(ctx context.Context, login string) (*models.Customer, error)
	UpdatePasswordHash(ctx context.Context, executor SQLExecutor, kind models.PrincipalKind, id int64, hash string) error
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// FindStaffByUsername retrieves a staff member with password hash by username.
func (r *authRepository) FindStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error) {
	row := r.db.QueryRowContext(ctx, staffSelect+` WHERE LOWER(s.username) = LOWER($1)`, strings.TrimSpace(username))
	s, err := scanStaff(row)
	if err != nil {
		return nil, dbError(err, "finding staff by username")
	}
	return s, nil
}

// FindCustomerByLogin matches a customer on email (case-insensitive) or phone number.
func (r *authRepository) FindCustomerByLogin(ctx context.Context, login string) (*models.Customer, error) {
	login = strings.TrimSpace(login)
	row := r.db.QueryRowContext(ctx, customerSelect+` WHERE LOWER(email) = LOWER($1) OR phone_number = $1 LIMIT 1`, login)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, dbError(err, "finding customer by login")
	}
	return c, nil
}

func (r *authRepository) UpdatePasswordHash(ctx context.Context, executor SQLExecutor, kind models.PrincipalKind, id int64, hash string) error {
	table := "customers"
	if kind == models.PrincipalStaff {
		table = "staff_members"
	}
	res, err := executor.ExecContext(ctx, `UPDATE `+table+` SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
	return expectAffected(res, err, "updating password")
}
