package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"spa_backend/internal/models"
)

// CatalogRepository defines database operations for spa services.
type CatalogRepository interface {
	CreateService(ctx context.Context, executor SQLExecutor, s *models.SpaService) error
	GetServiceByID(ctx context.Context, id int64) (*models.SpaService, error)
	GetServicesByIDs(ctx context.Context, executor SQLExecutor, ids []int64) ([]models.SpaService, error)
	ListServices(ctx context.Context, activeOnly bool) ([]models.SpaService, error)
	UpdateService(ctx context.Context, executor SQLExecutor, s *models.SpaService) error
	SetServiceActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

const serviceSelect = `SELECT id, name, description, price, duration_minutes, is_active, created_at, updated_at FROM spa_services`

func scanService(s scanner) (*models.SpaService, error) {
	svc := &models.SpaService{}
	if err := s.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.DurationMinutes, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, err
	}
	return svc, nil
}

func (r *catalogRepository) CreateService(ctx context.Context, executor SQLExecutor, s *models.SpaService) error {
	query := `INSERT INTO spa_services (name, description, price, duration_minutes, is_active)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, s.Name, s.Description, s.Price, s.DurationMinutes, s.IsActive).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return dbError(err, "creating service")
	}
	return nil
}

func (r *catalogRepository) GetServiceByID(ctx context.Context, id int64) (*models.SpaService, error) {
	s, err := scanService(r.db.QueryRowContext(ctx, serviceSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting service %d", id))
	}
	return s, nil
}

// GetServicesByIDs returns the services whose id is in ids, in no particular order.
// Missing ids are simply absent from the result.
func (r *catalogRepository) GetServicesByIDs(ctx context.Context, executor SQLExecutor, ids []int64) ([]models.SpaService, error) {
	if executor == nil {
		executor = r.db
	}
	rows, err := executor.QueryContext(ctx, serviceSelect+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, dbError(err, "getting services by ids")
	}
	defer rows.Close()
	return collectServices(rows)
}

func (r *catalogRepository) ListServices(ctx context.Context, activeOnly bool) ([]models.SpaService, error) {
	query := serviceSelect
	if activeOnly {
		query += ` WHERE is_active`
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, dbError(err, "listing services")
	}
	defer rows.Close()
	return collectServices(rows)
}

func collectServices(rows *sql.Rows) ([]models.SpaService, error) {
	services := []models.SpaService{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, dbError(err, "scanning service")
		}
		services = append(services, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating services")
	}
	return services, nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, executor SQLExecutor, s *models.SpaService) error {
	query := `UPDATE spa_services SET name = $1, description = $2, price = $3, duration_minutes = $4, is_active = $5, updated_at = now()
	          WHERE id = $6 RETURNING updated_at`
	if err := executor.QueryRowContext(ctx, query, s.Name, s.Description, s.Price, s.DurationMinutes, s.IsActive, s.ID).Scan(&s.UpdatedAt); err != nil {
		return dbError(err, fmt.Sprintf("updating service %d", s.ID))
	}
	return nil
}

func (r *catalogRepository) SetServiceActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	res, err := executor.ExecContext(ctx, `UPDATE spa_services SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
	return expectAffected(res, err, "setting service active")
}
