package reportdesk

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// StorageInfo describes the database file behind a Core.
type StorageInfo struct {
	DBPath        string `json:"db_path"`
	SizeBytes     int64  `json:"size_bytes"`
	CreditReports int    `json:"credit_reports"`
	Insights      int    `json:"insights"`
	OperationLogs int    `json:"operation_logs"`
}

// StorageInfo reports the database file size and row counts.
func (c *Core) StorageInfo(ctx context.Context) (StorageInfo, error) {
	info := StorageInfo{DBPath: c.dbPath}
	stat, err := os.Stat(c.dbPath)
	if err != nil {
		return info, WrapError(ErrCodeDatabase, "failed to stat database file", err)
	}
	info.SizeBytes = stat.Size()

	counts := []struct {
		table string
		dst   *int
	}{
		{"credit_reports", &info.CreditReports},
		{"investment_insights", &info.Insights},
		{"operation_logs", &info.OperationLogs},
	}
	for _, count := range counts {
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+count.table).Scan(count.dst); err != nil {
			return info, WrapError(ErrCodeDatabase, "failed to count "+count.table, err)
		}
	}
	return info, nil
}

// Backup writes a consistent copy of the database to w and returns the number
// of bytes written. The copy is taken with VACUUM INTO, so it is compacted and
// never contains a half-committed transaction.
func (c *Core) Backup(ctx context.Context, w io.Writer) (int64, error) {
	dir, err := os.MkdirTemp("", "reportdesk-backup-*")
	if err != nil {
		return 0, WrapError(ErrCodeInternal, "failed to create backup dir", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, filepath.Base(c.dbPath))
	if _, err := c.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return 0, WrapError(ErrCodeDatabase, "failed to snapshot database", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		return 0, WrapError(ErrCodeInternal, "failed to open backup", err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, WrapError(ErrCodeInternal, "failed to write backup", err)
	}
	c.logger.Info("database backup written", "db_path", c.dbPath, "bytes", n)
	return n, nil
}
