package reportdesk

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"reportdesk/pkg/reportparse"
)

const msgFillAllFields = "please fill all fields"

// GenerateCreditReport validates the form, asks the model for a credit report,
// parses the reply and saves the result.
func (c *Core) GenerateCreditReport(ctx context.Context, req CreditReportRequest) (*CreditReportRecord, error) {
	return c.generateCreditReport(ctx, req, nil)
}

// GenerateCreditReportStream is GenerateCreditReport with model text streamed
// to onDelta as it arrives.
func (c *Core) GenerateCreditReportStream(ctx context.Context, req CreditReportRequest, onDelta func(string)) (*CreditReportRecord, error) {
	return c.generateCreditReport(ctx, req, onDelta)
}

func (c *Core) generateCreditReport(ctx context.Context, req CreditReportRequest, onDelta func(string)) (*CreditReportRecord, error) {
	applicant, err := ValidateCreditReportRequest(req)
	if err != nil {
		return nil, err
	}
	settings, apiKey, err := c.resolveAISettings(ctx, req.AI)
	if err != nil {
		return nil, err
	}

	chat, err := c.completeChat(ctx, settings, apiKey, "", buildCreditReportPrompt(applicant), onDelta)
	if err != nil {
		return nil, err
	}

	record := &CreditReportRecord{
		UID:       uuid.NewString(),
		Applicant: applicant,
		Model:     chat.Model,
		Provider:  settings.Provider,
		Report:    c.ParseCreditReport(chat.Content),
		RawText:   chat.Content,
		CreatedAt: c.nowRFC3339(),
	}

	if id, err := c.saveCreditReport(ctx, record); err != nil {
		c.Logger().Warn("failed to save credit report", "uid", record.UID, "err", err)
	} else {
		record.ID = id
	}
	return record, nil
}

// ValidateCreditReportRequest checks that every field is present and that
// numeric fields hold non-negative numbers.
func ValidateCreditReportRequest(req CreditReportRequest) (CreditApplicant, error) {
	fields := []string{req.Name, req.Age, req.Income, req.Employment, req.Debts, req.History, req.Missed}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return CreditApplicant{}, NewError(ErrCodeInvalidInput, msgFillAllFields)
		}
	}

	age, err := parseCount("age", req.Age)
	if err != nil {
		return CreditApplicant{}, err
	}
	history, err := parseCount("history", req.History)
	if err != nil {
		return CreditApplicant{}, err
	}
	missed, err := parseCount("missed", req.Missed)
	if err != nil {
		return CreditApplicant{}, err
	}
	income, err := parseNonNegativeAmount("income", req.Income)
	if err != nil {
		return CreditApplicant{}, err
	}
	debts, err := parseNonNegativeAmount("debts", req.Debts)
	if err != nil {
		return CreditApplicant{}, err
	}

	return CreditApplicant{
		Name:           strings.TrimSpace(req.Name),
		Age:            age,
		Income:         income,
		Employment:     strings.TrimSpace(req.Employment),
		Debts:          debts,
		HistoryYears:   history,
		MissedPayments: missed,
	}, nil
}

func parseCount(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, NewError(ErrCodeValidation, fmt.Sprintf("%s must be a non-negative whole number", field))
	}
	return n, nil
}

func parseNonNegativeAmount(field, raw string) (Amount, error) {
	a, err := ParseAmount(raw)
	if err != nil || a.IsNegative() {
		return Amount{}, NewError(ErrCodeValidation, fmt.Sprintf("%s must be a non-negative amount", field))
	}
	return a, nil
}

func cleanAmountText(raw string) string {
	return strings.NewReplacer("₹", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
}

func (c *Core) saveCreditReport(ctx context.Context, record *CreditReportRecord) (int64, error) {
	keyPoints, err := json.Marshal(record.Report.KeyPoints)
	if err != nil {
		return 0, fmt.Errorf("marshal key_points: %w", err)
	}
	reasons, err := json.Marshal(record.Report.Reasons)
	if err != nil {
		return 0, fmt.Errorf("marshal reasons: %w", err)
	}

	var id int64
	err = c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO credit_reports (
				uid, name, age, income, employment, debts, history_years, missed_payments,
				provider, model, estimated_score, required_score, risk_level, loan_decision,
				key_points, reasons, note, raw_text, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			record.UID,
			record.Applicant.Name,
			record.Applicant.Age,
			record.Applicant.Income,
			record.Applicant.Employment,
			record.Applicant.Debts,
			record.Applicant.HistoryYears,
			record.Applicant.MissedPayments,
			record.Provider,
			record.Model,
			record.Report.EstimatedScore,
			record.Report.RequiredScore,
			record.Report.RiskLevel,
			record.Report.LoanDecision,
			string(keyPoints),
			string(reasons),
			record.Report.Note,
			record.RawText,
			record.CreatedAt,
		)
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to insert credit report", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to read credit report id", err)
		}
		details := fmt.Sprintf("name=%s risk=%s decision=%s", record.Applicant.Name, record.Report.RiskLevel, record.Report.LoanDecision)
		return insertOperationLog(tx, OpCreditReportCreated, record.UID, details)
	})
	return id, err
}

const creditReportColumns = `id, uid, name, age, income, employment, debts, history_years, missed_payments,
	provider, model, estimated_score, required_score, risk_level, loan_decision,
	key_points, reasons, note, raw_text, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (c *Core) scanCreditReport(row rowScanner) (CreditReportRecord, error) {
	var record CreditReportRecord
	var report reportparse.CreditReport
	var keyPoints, reasons string
	err := row.Scan(
		&record.ID,
		&record.UID,
		&record.Applicant.Name,
		&record.Applicant.Age,
		&record.Applicant.Income,
		&record.Applicant.Employment,
		&record.Applicant.Debts,
		&record.Applicant.HistoryYears,
		&record.Applicant.MissedPayments,
		&record.Provider,
		&record.Model,
		&report.EstimatedScore,
		&report.RequiredScore,
		&report.RiskLevel,
		&report.LoanDecision,
		&keyPoints,
		&reasons,
		&report.Note,
		&record.RawText,
		&record.CreatedAt,
	)
	if err != nil {
		return CreditReportRecord{}, err
	}
	report.KeyPoints = decodeStringList(keyPoints)
	report.Reasons = decodeStringList(reasons)
	record.Report = c.decorate(report)
	return record, nil
}

func decodeStringList(raw string) []string {
	items := []string{}
	if raw == "" {
		return items
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}

// GetCreditReport loads a saved report by numeric id or uid.
func (c *Core) GetCreditReport(ctx context.Context, ref string) (*CreditReportRecord, error) {
	column, value, err := recordKey(ref)
	if err != nil {
		return nil, err
	}
	row := c.db.QueryRowContext(ctx,
		"SELECT "+creditReportColumns+" FROM credit_reports WHERE "+column+" = ?", value)
	record, err := c.scanCreditReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("credit report %s not found", strings.TrimSpace(ref)))
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to load credit report", err)
	}
	return &record, nil
}

// ListCreditReports returns saved reports, newest first. Raw model text is
// omitted.
func (c *Core) ListCreditReports(ctx context.Context, limit, offset int) ([]CreditReportRecord, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+creditReportColumns+" FROM credit_reports ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to query credit reports", err)
	}
	defer rows.Close()

	records := []CreditReportRecord{}
	for rows.Next() {
		record, err := c.scanCreditReport(rows)
		if err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan credit report", err)
		}
		record.RawText = ""
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to iterate credit reports", err)
	}
	return records, nil
}

// DeleteCreditReport removes a saved report by numeric id or uid.
func (c *Core) DeleteCreditReport(ctx context.Context, ref string) error {
	column, value, err := recordKey(ref)
	if err != nil {
		return err
	}
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		var uid string
		err := tx.QueryRow("SELECT uid FROM credit_reports WHERE "+column+" = ?", value).Scan(&uid)
		if errors.Is(err, sql.ErrNoRows) {
			return NewError(ErrCodeNotFound, fmt.Sprintf("credit report %s not found", strings.TrimSpace(ref)))
		}
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to load credit report", err)
		}
		if _, err := tx.Exec("DELETE FROM credit_reports WHERE uid = ?", uid); err != nil {
			return WrapError(ErrCodeDatabase, "failed to delete credit report", err)
		}
		return insertOperationLog(tx, OpCreditReportDeleted, uid, "")
	})
}

// recordKey maps a path reference to its lookup column.
func recordKey(ref string) (string, any, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", nil, NewError(ErrCodeInvalidInput, "id is required")
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if id <= 0 {
			return "", nil, NewError(ErrCodeInvalidInput, "id must be positive")
		}
		return "id", id, nil
	}
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", nil, NewError(ErrCodeInvalidInput, "id must be a number or uuid")
	}
	return "uid", strings.ToLower(trimmed), nil
}
