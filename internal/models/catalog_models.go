package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpaService is a bookable treatment from the catalog.
type SpaService struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description,omitempty" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
