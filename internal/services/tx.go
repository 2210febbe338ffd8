package services

import (
	"context"
	"database/sql"
	"time"

	"spa_backend/internal/database"
	"spa_backend/internal/repositories"
)

// TxRunner runs fn in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error
}

// Locker takes the transaction-scoped advisory locks that serialize bookings per staff day
// and payroll mutations per staff month.
type Locker interface {
	LockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) error
	TryLockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) (bool, error)
	LockPayrollMonth(ctx context.Context, tx repositories.SQLExecutor, staffID int64, month, year int) error
}

// PostgresTx implements TxRunner and Locker on a *sql.DB.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (p *PostgresTx) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	return database.WithTx(ctx, p.db, func(tx *sql.Tx) error { return fn(tx) })
}

func (p *PostgresTx) LockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) error {
	return database.LockStaffDay(ctx, tx, staffID, day)
}

func (p *PostgresTx) TryLockStaffDay(ctx context.Context, tx repositories.SQLExecutor, staffID int64, day time.Time) (bool, error) {
	return database.TryLockStaffDay(ctx, tx, staffID, day)
}

func (p *PostgresTx) LockPayrollMonth(ctx context.Context, tx repositories.SQLExecutor, staffID int64, month, year int) error {
	return database.LockPayrollMonth(ctx, tx, staffID, month, year)
}
