package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

// QuickAddCustomerRequest DTO for walk-in customers registered at the front desk.
type QuickAddCustomerRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Email       *string `json:"email"`
}

// UpdateCustomerRequest DTO
type UpdateCustomerRequest struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

// PaginatedCustomers is a page of customers with the total match count.
type PaginatedCustomers struct {
	Customers []models.Customer `json:"customers"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// CustomerService manages customer records from the staff side.
type CustomerService interface {
	ListCustomers(ctx context.Context, filters models.CustomerFilters) (*PaginatedCustomers, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	QuickAddCustomer(ctx context.Context, req QuickAddCustomerRequest) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error)
	SetCustomerActive(ctx context.Context, id int64, active bool) error
}

type customerService struct {
	repo repositories.CustomerRepository
	db   repositories.SQLExecutor
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(repo repositories.CustomerRepository, db repositories.SQLExecutor) CustomerService {
	return &customerService{repo: repo, db: db}
}

func (s *customerService) ListCustomers(ctx context.Context, filters models.CustomerFilters) (*PaginatedCustomers, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	customers, total, err := s.repo.GetCustomers(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &PaginatedCustomers{Customers: customers, Total: total, Page: filters.Page, PageSize: filters.PageSize}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// QuickAddCustomer creates an account with a random password; the customer can reset it later.
func (s *customerService) QuickAddCustomer(ctx context.Context, req QuickAddCustomerRequest) (*models.Customer, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if utils.IsEmpty(req.FullName) || phone == "" {
		return nil, validationf("name and phone number are required")
	}
	var email *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if !utils.IsValidEmail(e) {
			return nil, validationf("invalid email address")
		}
		email = &e
	}
	hash, err := hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	c := &models.Customer{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PhoneNumber:  &phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateCustomer(ctx, s.db, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to add customer: %w", err)
	}
	return c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	c, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, validationf("name cannot be empty")
		}
		c.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if e != "" && !utils.IsValidEmail(e) {
			return nil, validationf("invalid email address")
		}
		c.Email = utils.NewNullString(e)
	}
	if req.PhoneNumber != nil {
		c.PhoneNumber = utils.NewNullString(strings.TrimSpace(*req.PhoneNumber))
	}
	if req.Notes != nil {
		c.Notes = utils.NewNullString(*req.Notes)
	}
	if err := s.repo.UpdateCustomer(ctx, s.db, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return c, nil
}

func (s *customerService) SetCustomerActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetCustomerActive(ctx, s.db, id, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}
