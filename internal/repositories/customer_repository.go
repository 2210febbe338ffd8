package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"spa_backend/internal/models"
)

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, executor SQLExecutor, c *models.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, executor SQLExecutor, c *models.Customer) error
	SetCustomerActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerSelect = `SELECT id, full_name, email, phone_number, password_hash, is_active, notes, created_at, updated_at FROM customers`

func scanCustomer(s scanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.Scan(&c.ID, &c.FullName, &c.Email, &c.PhoneNumber, &c.PasswordHash, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCustomer inserts a new customer and fills its id and timestamps.
func (r *customerRepository) CreateCustomer(ctx context.Context, executor SQLExecutor, c *models.Customer) error {
	query := `INSERT INTO customers (full_name, email, phone_number, password_hash, is_active, notes)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, c.FullName, c.Email, c.PhoneNumber, c.PasswordHash, c.IsActive, c.Notes).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return dbError(err, "creating customer")
	}
	return nil
}

// GetCustomerByID retrieves a customer by id.
func (r *customerRepository) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting customer %d", id))
	}
	return c, nil
}

// GetCustomers retrieves customers with pagination and optional search over name, email and phone.
func (r *customerRepository) GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT id, full_name, email, phone_number, password_hash, is_active, notes, created_at, updated_at, COUNT(*) OVER() AS total_count FROM customers`)

	args := []interface{}{}
	if term := strings.TrimSpace(filters.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		qb.WriteString(` WHERE (LOWER(full_name) LIKE $1 OR LOWER(email) LIKE $1 OR phone_number LIKE $1)`)
	}
	limit, offset := pageBounds(filters.Page, filters.PageSize)
	args = append(args, limit, offset)
	qb.WriteString(fmt.Sprintf(` ORDER BY full_name ASC, id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)))

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, dbError(err, "listing customers")
	}
	defer rows.Close()

	customers := []models.Customer{}
	total := 0
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.PhoneNumber, &c.PasswordHash, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, dbError(err, "scanning customer")
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError(err, "iterating customers")
	}
	return customers, total, nil
}

// UpdateCustomer saves the editable profile fields.
func (r *customerRepository) UpdateCustomer(ctx context.Context, executor SQLExecutor, c *models.Customer) error {
	query := `UPDATE customers SET full_name = $1, email = $2, phone_number = $3, notes = $4, updated_at = now()
	          WHERE id = $5 RETURNING updated_at`
	if err := executor.QueryRowContext(ctx, query, c.FullName, c.Email, c.PhoneNumber, c.Notes, c.ID).Scan(&c.UpdatedAt); err != nil {
		return dbError(err, fmt.Sprintf("updating customer %d", c.ID))
	}
	return nil
}

func (r *customerRepository) SetCustomerActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	res, err := executor.ExecContext(ctx, `UPDATE customers SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
	return expectAffected(res, err, "setting customer active")
}
