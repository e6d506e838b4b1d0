package reportdesk

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestStorageInfo(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	info, err := core.StorageInfo(ctx)
	assertNoError(t, err, "storage info on empty db")
	if info.DBPath != core.DBPath() || info.SizeBytes <= 0 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.CreditReports != 0 || info.Insights != 0 {
		t.Fatalf("expected empty tables, got %+v", info)
	}

	stubAIReply(t, "m", sampleCreditReply)
	_, err = core.GenerateCreditReport(ctx, validCreditRequest())
	assertNoError(t, err, "generate")

	info, err = core.StorageInfo(ctx)
	assertNoError(t, err, "storage info")
	if info.CreditReports != 1 || info.Insights != 0 {
		t.Fatalf("unexpected counts: %+v", info)
	}
}

func TestBackup(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	stubAIReply(t, "m", sampleCreditReply)
	ctx := context.Background()
	record, err := core.GenerateCreditReport(ctx, validCreditRequest())
	assertNoError(t, err, "generate")

	var buf bytes.Buffer
	n, err := core.Backup(ctx, &buf)
	assertNoError(t, err, "backup")
	if n != int64(buf.Len()) || !bytes.HasPrefix(buf.Bytes(), []byte("SQLite format 3\x00")) {
		t.Fatalf("backup is not a sqlite file: %d bytes", n)
	}

	path := filepath.Join(t.TempDir(), "restored.db")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write backup: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	assertNoError(t, err, "open backup")
	defer db.Close()

	var uid string
	if err := db.QueryRow("SELECT uid FROM credit_reports").Scan(&uid); err != nil {
		t.Fatalf("query backup: %v", err)
	}
	if uid != record.UID {
		t.Fatalf("backup uid = %q, want %q", uid, record.UID)
	}
}
