// Package database provides database access layers for PostgreSQL and Redis.
// Implements connection management, query operations, and transaction handling
// with automatic retry logic and connection pooling.
//
// PostgreSQL is the system of record for users, chat sessions, and messages.
// Redis backs the read-through cache on the authentication hot path.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// Sentinel errors returned by the store. Handlers map these to HTTP statuses.
var (
	// ErrUserNotFound is returned when no user matches the given ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert violates the unique email constraint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrSessionNotFound is returned when no chat session matches the given ID.
	ErrSessionNotFound = errors.New("chat session not found")
)

// TxFunc is a function that runs within a database transaction.
// Used with WithTransaction to ensure atomic operations.
//
// The function receives a *sql.Tx which should be used for all
// database operations within the transaction. The transaction will
// be automatically committed on success or rolled back on error/panic.
type TxFunc func(tx *sql.Tx) error

// Querier is an interface for executing SQL queries.
// Abstracts *sql.DB and *sql.Tx to allow the same query code to work
// both inside and outside transactions.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgresDB wraps a PostgreSQL database connection with connection pooling.
// Provides high-level methods for users, chat sessions, and messages.
//
// Features:
//   - Automatic connection retry with exponential backoff
//   - Connection pooling (configurable max connections)
//   - Transaction support with automatic rollback on errors
//   - Panic recovery in transactions
//   - Health check support
type PostgresDB struct {
	db *sql.DB // Underlying connection pool
}

// NewPostgresDB creates a new PostgreSQL connection with automatic retry.
// Implements exponential backoff retry logic to handle transient connection
// failures during startup (e.g., database container not ready yet).
//
// Connection pool settings:
//   - MaxOpenConns: From configuration (default: 25)
//   - MaxIdleConns: Half of MaxOpenConns
//   - ConnMaxLifetime: 1 hour
//
// Retry configuration:
//   - Max attempts: 5
//   - Initial delay: 100ms
//   - Max delay: 3 seconds
//   - Total timeout: 30 seconds
//
// Example:
//
//	db, err := database.NewPostgresDB(&cfg.Database)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Database connection failed")
//	}
//	defer db.Close()
func NewPostgresDB(cfg *config.DatabaseConfig) (*PostgresDB, error) {
	var db *sql.DB
	var connErr error

	// Retry database connection with exponential backoff
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retryConfig := utils.DatabaseRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.InitialDelay = 100 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second

	err := utils.Retry(ctx, retryConfig, func() error {
		var err error
		db, err = sql.Open("postgres", cfg.DSN())
		if err != nil {
			connErr = err
			log.Warn().Err(err).Msg("Failed to open database connection, retrying...")
			return err
		}

		// Set connection pool settings
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MaxConns / 2)
		db.SetConnMaxLifetime(time.Hour)

		// Verify connection with ping
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := db.PingContext(pingCtx); err != nil {
			connErr = err
			log.Warn().Err(err).Msg("Failed to ping database, retrying...")
			db.Close() // Clean up failed connection
			return err
		}

		return nil
	})

	if err != nil {
		if connErr != nil {
			return nil, fmt.Errorf("failed to connect to database after retries: %w", connErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	return &PostgresDB{db: db}, nil
}

// Close closes the database connection and releases all resources.
// Should be called when shutting down the application, typically
// with defer in main().
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// Ping checks if the database connection is alive.
// Used by health check endpoints to verify database availability.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	if err := db.Ping(ctx); err != nil {
//	    return "unhealthy", err
//	}
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// RunMigrations executes database migrations from SQL string.
// Should be called during application startup to ensure schema is up to date.
//
// The migration SQL should be idempotent (safe to run multiple times)
// using CREATE TABLE IF NOT EXISTS, etc.
//
// Example:
//
//	if err := db.RunMigrations(ctx, migrationSQL); err != nil {
//	    log.Fatal().Err(err).Msg("Migration failed")
//	}
func (p *PostgresDB) RunMigrations(ctx context.Context, migrationSQL string) error {
	_, err := p.db.ExecContext(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}

// WithTransaction executes a function within a database transaction.
// Automatically handles commit on success and rollback on error or panic.
//
// The function receives a *sql.Tx which should be used for all
// database operations that need to be atomic.
//
// Example:
//
//	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, deleteMessages, chatID); err != nil {
//	        return err // Automatic rollback
//	    }
//	    _, err := tx.ExecContext(ctx, deleteSession, chatID)
//	    return err // Commit on nil
//	})
func (p *PostgresDB) WithTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Ensure transaction is closed
	defer func() {
		if r := recover(); r != nil {
			// Panic occurred, rollback and re-panic
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	// Execute the function
	if err := fn(tx); err != nil {
		// Function returned error, rollback
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	// Success, commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
