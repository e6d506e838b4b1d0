package reportdesk

import (
	"database/sql"
	"fmt"
	"strings"
)

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS credit_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			income TEXT NOT NULL,
			employment TEXT NOT NULL,
			debts TEXT NOT NULL,
			history_years INTEGER NOT NULL,
			missed_payments INTEGER NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			estimated_score TEXT NOT NULL DEFAULT '',
			required_score TEXT NOT NULL DEFAULT '',
			risk_level TEXT NOT NULL DEFAULT '',
			loan_decision TEXT NOT NULL DEFAULT '',
			key_points TEXT NOT NULL DEFAULT '[]',
			reasons TEXT NOT NULL DEFAULT '[]',
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return err
	}
	if err := ensureColumn(tx, "credit_reports", "raw_text", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS investment_insights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			location TEXT NOT NULL,
			sector TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			entries TEXT NOT NULL DEFAULT '[]',
			insight TEXT NOT NULL DEFAULT '',
			used_fallback INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return err
	}
	if err := ensureColumn(tx, "investment_insights", "raw_text", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS ai_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			base_url TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			temperature REAL NOT NULL DEFAULT 0.7,
			max_tokens INTEGER NOT NULL DEFAULT 512,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}
	if err := ensureColumn(tx, "ai_settings", "provider", "TEXT NOT NULL DEFAULT 'groq'"); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS operation_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_type TEXT NOT NULL,
			subject TEXT,
			details TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_credit_reports_created_at ON credit_reports(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_investment_insights_created_at ON investment_insights(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_operation_logs_created_at ON operation_logs(created_at)",
	} {
		if err := exec(tx, stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// ensureColumn adds column to table when an older database lacks it.
func ensureColumn(tx *sql.Tx, table, column, definition string) error {
	has, err := tableHasColumn(tx, table, column)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return exec(tx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
}

func tableHasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
