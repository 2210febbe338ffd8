package models

import "time"

// Customer represents a client of the spa. Customers log in with email or phone.
type Customer struct {
	ID           int64     `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PhoneNumber  *string   `json:"phone_number,omitempty" db:"phone_number"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CustomerFilters defines search and paging for customer listings.
type CustomerFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
