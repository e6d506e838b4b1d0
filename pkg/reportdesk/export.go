package reportdesk

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

const (
	exportBatchSize = maxPageSize
	listSeparator   = "; "
)

var creditReportCSVHeader = []string{
	"uid", "created_at", "name", "age", "income", "employment", "debts",
	"history_years", "missed_payments", "provider", "model",
	"estimated_score", "required_score", "risk_level", "loan_decision",
	"key_points", "reasons", "note",
}

var insightCSVHeader = []string{
	"uid", "created_at", "location", "sector", "provider", "model",
	"used_fallback", "entries", "insight",
}

// ExportCreditReportsCSV writes every saved credit report to w as CSV,
// newest first.
func (c *Core) ExportCreditReportsCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(creditReportCSVHeader); err != nil {
		return WrapError(ErrCodeInternal, "failed to write csv header", err)
	}
	for offset := 0; ; offset += exportBatchSize {
		records, err := c.ListCreditReports(ctx, exportBatchSize, offset)
		if err != nil {
			return err
		}
		for _, r := range records {
			row := []string{
				r.UID,
				r.CreatedAt,
				r.Applicant.Name,
				strconv.Itoa(r.Applicant.Age),
				r.Applicant.Income.Display(),
				r.Applicant.Employment,
				r.Applicant.Debts.Display(),
				strconv.Itoa(r.Applicant.HistoryYears),
				strconv.Itoa(r.Applicant.MissedPayments),
				r.Provider,
				r.Model,
				r.Report.EstimatedScore,
				r.Report.RequiredScore,
				r.Report.RiskLevel,
				r.Report.LoanDecision,
				strings.Join(r.Report.KeyPoints, listSeparator),
				strings.Join(r.Report.Reasons, listSeparator),
				r.Report.Note,
			}
			if err := cw.Write(row); err != nil {
				return WrapError(ErrCodeInternal, "failed to write csv row", err)
			}
		}
		if len(records) < exportBatchSize {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return WrapError(ErrCodeInternal, "failed to flush csv", err)
	}
	return nil
}

// ExportInsightsCSV writes every saved insight to w as CSV, newest first.
func (c *Core) ExportInsightsCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(insightCSVHeader); err != nil {
		return WrapError(ErrCodeInternal, "failed to write csv header", err)
	}
	for offset := 0; ; offset += exportBatchSize {
		records, err := c.ListInsights(ctx, exportBatchSize, offset)
		if err != nil {
			return err
		}
		for _, r := range records {
			row := []string{
				r.UID,
				r.CreatedAt,
				r.Location,
				r.Sector,
				r.Provider,
				r.Model,
				strconv.FormatBool(r.UsedFallback),
				strings.Join(r.Entries, listSeparator),
				r.Insight,
			}
			if err := cw.Write(row); err != nil {
				return WrapError(ErrCodeInternal, "failed to write csv row", err)
			}
		}
		if len(records) < exportBatchSize {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return WrapError(ErrCodeInternal, "failed to flush csv", err)
	}
	return nil
}
