package reportdesk

import (
	"bytes"
	"context"
	"encoding/csv"
	"reflect"
	"testing"
)

func TestExportCreditReportsCSV(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	stubAIReply(t, "m", sampleCreditReply)
	ctx := context.Background()
	record, err := core.GenerateCreditReport(ctx, validCreditRequest())
	assertNoError(t, err, "generate")

	var buf bytes.Buffer
	assertNoError(t, core.ExportCreditReportsCSV(ctx, &buf), "export")

	rows, err := csv.NewReader(&buf).ReadAll()
	assertNoError(t, err, "read csv")
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], creditReportCSVHeader) {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	row := rows[1]
	want := map[string]string{
		"uid":           record.UID,
		"name":          "Asha",
		"age":           "34",
		"income":        "85000",
		"debts":         "120000.5",
		"risk_level":    "Low",
		"loan_decision": "Approved",
		"key_points":    "Stable income; Long credit history",
		"reasons":       "Score exceeds threshold",
		"note":          "Review recommended in 6 months.",
	}
	for i, col := range creditReportCSVHeader {
		if v, ok := want[col]; ok && row[i] != v {
			t.Fatalf("column %s = %q, want %q", col, row[i], v)
		}
	}
}

func TestExportInsightsCSV(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	stubAIReply(t, "m", sampleInsightReply)
	ctx := context.Background()
	_, err := core.GenerateInsight(ctx, InsightRequest{Location: "Texas", Sector: "Energy"})
	assertNoError(t, err, "generate")

	var buf bytes.Buffer
	assertNoError(t, core.ExportInsightsCSV(ctx, &buf), "export")

	rows, err := csv.NewReader(&buf).ReadAll()
	assertNoError(t, err, "read csv")
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], insightCSVHeader) {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "Texas" || rows[1][3] != "Energy" || rows[1][6] != "false" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
	if rows[1][8] != "Texas power demand keeps climbing." {
		t.Fatalf("unexpected insight column: %q", rows[1][8])
	}
}

func TestExportEmpty(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	var buf bytes.Buffer
	assertNoError(t, core.ExportInsightsCSV(context.Background(), &buf), "export")
	rows, err := csv.NewReader(&buf).ReadAll()
	assertNoError(t, err, "read csv")
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
