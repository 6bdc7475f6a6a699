package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type contextKey string

const txKey contextKey = "tx"

// Executor is the query surface shared by *sqlx.DB and *sqlx.Tx
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// DB wraps sqlx.DB and implements TransactionManager. Repositories run their
// statements through Executor so they join the transaction carried by ctx.
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewDB wraps an open sqlite handle
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:     sqlx.NewDb(sqlDB, "sqlite3"),
		logger: logger,
	}
}

// WithTransaction runs fn in a transaction. A transaction already on ctx is reused,
// so nested calls commit or roll back together with the outermost one.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := extractTx(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Executor returns the transaction on ctx, or the database itself
func (db *DB) Executor(ctx context.Context) Executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db.DB
}

// InTransaction reports whether ctx carries a transaction
func InTransaction(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

func extractTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

var _ port.TransactionManager = (*DB)(nil)
