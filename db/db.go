package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/league-system/repositories"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

// ErrRetryExhausted is returned when an atomic section could not commit after
// the bounded number of conflict retries.
var ErrRetryExhausted = errors.New("transaction aborted: conflict retries exhausted")

const txMaxAttempts = 3

// TxRunner executes a function inside a single database transaction. The
// function either commits in full or not at all; conflicting concurrent
// writes abort it and it is retried a bounded number of times.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type Database struct {
	*sql.DB
}

func Connect(dsn string, timeout time.Duration) (*Database, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return &Database{DB: conn}, nil
}

// Migrate applies pending file migrations from migrationsPath.
func (d *Database) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(d.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RunInTx runs fn inside a transaction. Serialization failures and deadlocks
// are retried up to txMaxAttempts times before surfacing ErrRetryExhausted;
// any other error rolls back and is returned as-is.
func (d *Database) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		lastErr = d.runOnce(ctx, fn)
		if lastErr == nil || !isRetryableTxError(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (d *Database) runOnce(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (err error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
