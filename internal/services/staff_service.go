package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

// --- StaffMember DTOs ---
type CreateStaffRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Username    string  `json:"username" binding:"required"`
	Password    string  `json:"password" binding:"required,min=6"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Role        string  `json:"role" binding:"required"`
	JobTitleID  *int64  `json:"job_title_id"`
}

type UpdateStaffRequest struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	JobTitleID  *int64  `json:"job_title_id"`
	IsActive    *bool   `json:"is_active"`
}

// --- JobTitle DTOs ---
type JobTitleRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// StaffService manages staff accounts and job titles.
type StaffService interface {
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.StaffMember, error)
	GetStaff(ctx context.Context, id int64) (*models.StaffMember, error)
	ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.StaffMember, error)
	ListPublicStaff(ctx context.Context) ([]models.StaffRef, error)
	UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest) (*models.StaffMember, error)
	DeactivateStaff(ctx context.Context, id int64) error

	ListJobTitles(ctx context.Context) ([]models.JobTitle, error)
	CreateJobTitle(ctx context.Context, req JobTitleRequest) (*models.JobTitle, error)
	UpdateJobTitle(ctx context.Context, id int64, req JobTitleRequest) (*models.JobTitle, error)
	DeleteJobTitle(ctx context.Context, id int64) error
}

type staffService struct {
	repo repositories.StaffRepository
	db   repositories.SQLExecutor
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(repo repositories.StaffRepository, db repositories.SQLExecutor) StaffService {
	return &staffService{repo: repo, db: db}
}

func (s *staffService) checkJobTitle(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.GetJobTitleByID(ctx, *id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrJobTitleNotFound
		}
		return err
	}
	return nil
}

func (s *staffService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.StaffMember, error) {
	role, ok := models.ParseStaffRole(req.Role)
	if !ok {
		return nil, validationf("unknown role %q", req.Role)
	}
	username := strings.TrimSpace(req.Username)
	if utils.IsEmpty(req.FullName) || username == "" {
		return nil, validationf("full name and username are required")
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	}
	if req.Email != nil && *req.Email != "" && !utils.IsValidEmail(*req.Email) {
		return nil, validationf("invalid email address")
	}
	if err := s.checkJobTitle(ctx, req.JobTitleID); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	st := &models.StaffMember{
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         role,
		JobTitleID:   req.JobTitleID,
		IsActive:     true,
	}
	if err := s.repo.CreateStaff(ctx, s.db, st); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	return s.GetStaff(ctx, st.ID)
}

func (s *staffService) GetStaff(ctx context.Context, id int64) (*models.StaffMember, error) {
	st, err := s.repo.GetStaffByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *staffService) ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.StaffMember, error) {
	return s.repo.ListStaff(ctx, filters)
}

// ListPublicStaff exposes the technicians a customer may pick, names only.
func (s *staffService) ListPublicStaff(ctx context.Context) ([]models.StaffRef, error) {
	techs, err := s.repo.ListActiveTechnicians(ctx, nil)
	if err != nil {
		return nil, err
	}
	refs := make([]models.StaffRef, 0, len(techs))
	for _, t := range techs {
		refs = append(refs, models.StaffRef{ID: t.ID, FullName: t.FullName})
	}
	return refs, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest) (*models.StaffMember, error) {
	st, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, validationf("full name cannot be empty")
		}
		st.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		if *req.Email != "" && !utils.IsValidEmail(*req.Email) {
			return nil, validationf("invalid email address")
		}
		st.Email = utils.NewNullString(*req.Email)
	}
	if req.PhoneNumber != nil {
		st.PhoneNumber = utils.NewNullString(*req.PhoneNumber)
	}
	if req.Role != nil {
		role, ok := models.ParseStaffRole(*req.Role)
		if !ok {
			return nil, validationf("unknown role %q", *req.Role)
		}
		st.Role = role
	}
	if req.JobTitleID != nil {
		if err := s.checkJobTitle(ctx, req.JobTitleID); err != nil {
			return nil, err
		}
		st.JobTitleID = req.JobTitleID
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateStaff(ctx, s.db, st); err != nil {
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}
	return s.GetStaff(ctx, id)
}

// DeactivateStaff is a soft delete; history (bookings, ledger rows) keeps its references.
func (s *staffService) DeactivateStaff(ctx context.Context, id int64) error {
	if err := s.repo.SetStaffActive(ctx, s.db, id, false); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrStaffNotFound
		}
		return err
	}
	return nil
}

func (s *staffService) ListJobTitles(ctx context.Context) ([]models.JobTitle, error) {
	return s.repo.ListJobTitles(ctx)
}

func (req JobTitleRequest) apply(jt *models.JobTitle) error {
	if strings.TrimSpace(req.Name) == "" {
		return validationf("job title name is required")
	}
	if req.HourlyRate != nil && req.HourlyRate.IsNegative() {
		return validationf("hourly rate cannot be negative")
	}
	jt.Name = strings.TrimSpace(req.Name)
	jt.Description = req.Description
	jt.HourlyRate = decimal.NullDecimal{}
	if req.HourlyRate != nil {
		jt.HourlyRate = decimal.NewNullDecimal(*req.HourlyRate)
	}
	return nil
}

func (s *staffService) CreateJobTitle(ctx context.Context, req JobTitleRequest) (*models.JobTitle, error) {
	jt := &models.JobTitle{}
	if err := req.apply(jt); err != nil {
		return nil, err
	}
	if err := s.repo.CreateJobTitle(ctx, s.db, jt); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newError(ErrConflict, "job title name already exists")
		}
		return nil, fmt.Errorf("failed to create job title: %w", err)
	}
	return jt, nil
}

func (s *staffService) UpdateJobTitle(ctx context.Context, id int64, req JobTitleRequest) (*models.JobTitle, error) {
	jt, err := s.repo.GetJobTitleByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrJobTitleNotFound
		}
		return nil, err
	}
	if err := req.apply(jt); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateJobTitle(ctx, s.db, jt); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newError(ErrConflict, "job title name already exists")
		}
		return nil, fmt.Errorf("failed to update job title: %w", err)
	}
	return jt, nil
}

// DeleteJobTitle is refused while staff members still hold the title.
func (s *staffService) DeleteJobTitle(ctx context.Context, id int64) error {
	err := s.repo.DeleteJobTitle(ctx, s.db, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrJobTitleNotFound
	case errors.Is(err, repositories.ErrForeignKeyViolation):
		return ErrJobTitleInUse
	}
	return err
}
