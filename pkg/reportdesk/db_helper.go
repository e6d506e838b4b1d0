package reportdesk

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside a transaction, rolling back on error or panic and
// committing otherwise.
func (c *Core) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("transaction rollback failed on panic", "error", rbErr, "panic_value", p)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Error("transaction rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return WrapError(ErrCodeDatabase, "failed to commit transaction", err)
	}

	return nil
}

// insertOperationLog writes an operation log row inside tx.
func insertOperationLog(tx *sql.Tx, operation, subject, details string) error {
	_, err := tx.Exec(
		"INSERT INTO operation_logs (operation_type, subject, details) VALUES (?, ?, ?)",
		operation, nullableString(subject), nullableString(details),
	)
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to write operation log", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}
