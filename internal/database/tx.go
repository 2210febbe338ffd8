package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Advisory lock namespaces. The first key of pg_advisory_xact_lock(int, int)
// selects the namespace, the second the resource.
const (
	lockNamespaceStaffDay int32 = 1001
	lockNamespacePayroll  int32 = 1002
)

// StaffDayKey packs a staff id and the calendar day of t, in t's location, into one int32 lock key.
// Collisions only cause extra serialization, never missed locking.
func StaffDayKey(staffID int64, t time.Time) int32 {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	h := uint32(staffID*2654435761) ^ uint32(days*40503)
	return int32(h)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// LockStaffDay blocks until the (staff, day) booking lock is held by tx.
func LockStaffDay(ctx context.Context, tx execer, staffID int64, day time.Time) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lockNamespaceStaffDay, StaffDayKey(staffID, day)); err != nil {
		return fmt.Errorf("lock staff %d day: %w", staffID, err)
	}
	return nil
}

// TryLockStaffDay takes the (staff, day) lock without waiting.
func TryLockStaffDay(ctx context.Context, tx execer, staffID int64, day time.Time) (bool, error) {
	var ok bool
	err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock($1, $2)`, lockNamespaceStaffDay, StaffDayKey(staffID, day)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("try lock staff %d day: %w", staffID, err)
	}
	return ok, nil
}

// LockPayrollMonth serializes payroll mutations for one (staff, month, year).
func LockPayrollMonth(ctx context.Context, tx execer, staffID int64, month, year int) error {
	key := int32(uint32(staffID*2654435761) ^ uint32(year*12+month))
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lockNamespacePayroll, key); err != nil {
		return fmt.Errorf("lock payroll %d %d/%d: %w", staffID, month, year, err)
	}
	return nil
}
