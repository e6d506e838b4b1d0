package reportdesk

import (
	"context"
	"database/sql"
)

// AddOperationLog adds a new operation log entry.
func (c *Core) AddOperationLog(ctx context.Context, log OperationLog) (int64, error) {
	var subject, details string
	if log.Subject != nil {
		subject = *log.Subject
	}
	if log.Details != nil {
		details = *log.Details
	}
	result, err := c.db.ExecContext(ctx,
		"INSERT INTO operation_logs (operation_type, subject, details) VALUES (?, ?, ?)",
		log.Operation, nullableString(subject), nullableString(details),
	)
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "failed to add operation log", err)
	}
	return result.LastInsertId()
}

// GetOperationLogs returns recent operation logs, newest first.
func (c *Core) GetOperationLogs(ctx context.Context, limit, offset int) ([]OperationLog, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, operation_type, subject, details, created_at FROM operation_logs ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to query operation logs", err)
	}
	defer rows.Close()

	logs := []OperationLog{}
	for rows.Next() {
		var log OperationLog
		var subject, details, createdAt sql.NullString
		if err := rows.Scan(&log.ID, &log.Operation, &subject, &details, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan operation log", err)
		}
		if subject.Valid {
			log.Subject = &subject.String
		}
		if details.Valid {
			log.Details = &details.String
		}
		if createdAt.Valid {
			log.CreatedAt = &createdAt.String
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
