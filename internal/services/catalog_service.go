package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
)

// ServiceRequest DTO for creating or updating a spa service.
type ServiceRequest struct {
	Name            string          `json:"name" binding:"required"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	IsActive        *bool           `json:"is_active"`
}

func (r ServiceRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return validationf("service name is required")
	}
	if r.Price.IsNegative() {
		return validationf("price cannot be negative")
	}
	if r.DurationMinutes < 0 {
		return validationf("duration cannot be negative")
	}
	return nil
}

// CatalogService manages the bookable services.
type CatalogService interface {
	ListServices(ctx context.Context, activeOnly bool) ([]models.SpaService, error)
	GetService(ctx context.Context, id int64) (*models.SpaService, error)
	CreateService(ctx context.Context, req ServiceRequest) (*models.SpaService, error)
	UpdateService(ctx context.Context, id int64, req ServiceRequest) (*models.SpaService, error)
	DeactivateService(ctx context.Context, id int64) error
}

type catalogService struct {
	repo repositories.CatalogRepository
	db   repositories.SQLExecutor
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(repo repositories.CatalogRepository, db repositories.SQLExecutor) CatalogService {
	return &catalogService{repo: repo, db: db}
}

func (s *catalogService) ListServices(ctx context.Context, activeOnly bool) ([]models.SpaService, error) {
	return s.repo.ListServices(ctx, activeOnly)
}

func (s *catalogService) GetService(ctx context.Context, id int64) (*models.SpaService, error) {
	svc, err := s.repo.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) CreateService(ctx context.Context, req ServiceRequest) (*models.SpaService, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	svc := &models.SpaService{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateService(ctx, s.db, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func (s *catalogService) UpdateService(ctx context.Context, id int64, req ServiceRequest) (*models.SpaService, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Name = strings.TrimSpace(req.Name)
	svc.Description = req.Description
	svc.Price = req.Price
	svc.DurationMinutes = req.DurationMinutes
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateService(ctx, s.db, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return svc, nil
}

// DeactivateService hides the service from booking; past bookings keep referencing it.
func (s *catalogService) DeactivateService(ctx context.Context, id int64) error {
	if err := s.repo.SetServiceActive(ctx, s.db, id, false); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrServiceNotFound
		}
		return err
	}
	return nil
}
