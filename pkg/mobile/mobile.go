package mobile

import (
	"context"
	"encoding/json"

	"reportdesk/pkg/reportdesk"
	"reportdesk/pkg/reportparse"
)

// Core wraps the report core for gomobile bindings.
type Core struct {
	core *reportdesk.Core
}

// Open initializes the core with a database path. Provider keys come from
// the environment.
func Open(dbPath string) (*Core, error) {
	core, err := reportdesk.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// OpenWithKeysJSON initializes the core with provider keys given as a JSON
// object, e.g. {"groq":"..."}.
func OpenWithKeysJSON(dbPath, keysJSON string) (*Core, error) {
	keys := map[string]string{}
	if keysJSON != "" {
		if err := json.Unmarshal([]byte(keysJSON), &keys); err != nil {
			return nil, err
		}
	}
	core, err := reportdesk.OpenWithOptions(reportdesk.Options{DBPath: dbPath, APIKeys: keys})
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// GenerateCreditReportJSON runs the credit flow for a form payload and
// returns the saved record as JSON.
func (c *Core) GenerateCreditReportJSON(payloadJSON string) (string, error) {
	var req reportdesk.CreditReportRequest
	if err := json.Unmarshal([]byte(payloadJSON), &req); err != nil {
		return "", err
	}
	record, err := c.core.GenerateCreditReport(context.Background(), req)
	if err != nil {
		return "", err
	}
	return marshalJSON(record)
}

// GetCreditReportJSON returns one credit report by id or uid.
func (c *Core) GetCreditReportJSON(ref string) (string, error) {
	record, err := c.core.GetCreditReport(context.Background(), ref)
	if err != nil {
		return "", err
	}
	return marshalJSON(record)
}

// ListCreditReportsJSON returns a page of credit reports, newest first.
func (c *Core) ListCreditReportsJSON(limit, offset int) (string, error) {
	records, err := c.core.ListCreditReports(context.Background(), limit, offset)
	if err != nil {
		return "", err
	}
	return marshalJSON(records)
}

// DeleteCreditReport deletes a credit report by id or uid.
func (c *Core) DeleteCreditReport(ref string) error {
	return c.core.DeleteCreditReport(context.Background(), ref)
}

// GenerateInsightJSON runs the investment-insight flow and returns the saved
// record as JSON.
func (c *Core) GenerateInsightJSON(payloadJSON string) (string, error) {
	var req reportdesk.InsightRequest
	if err := json.Unmarshal([]byte(payloadJSON), &req); err != nil {
		return "", err
	}
	record, err := c.core.GenerateInsight(context.Background(), req)
	if err != nil {
		return "", err
	}
	return marshalJSON(record)
}

// GetInsightJSON returns one insight by id or uid.
func (c *Core) GetInsightJSON(ref string) (string, error) {
	record, err := c.core.GetInsight(context.Background(), ref)
	if err != nil {
		return "", err
	}
	return marshalJSON(record)
}

// ListInsightsJSON returns a page of insights, newest first.
func (c *Core) ListInsightsJSON(limit, offset int) (string, error) {
	records, err := c.core.ListInsights(context.Background(), limit, offset)
	if err != nil {
		return "", err
	}
	return marshalJSON(records)
}

// DeleteInsight deletes an insight by id or uid.
func (c *Core) DeleteInsight(ref string) error {
	return c.core.DeleteInsight(context.Background(), ref)
}

// GetAISettingsJSON returns the stored model settings.
func (c *Core) GetAISettingsJSON() (string, error) {
	settings, err := c.core.GetAISettings(context.Background())
	if err != nil {
		return "", err
	}
	return marshalJSON(settings)
}

// SetAISettingsJSON replaces the model settings and returns what was saved.
func (c *Core) SetAISettingsJSON(settingsJSON string) (string, error) {
	var settings reportdesk.AISettings
	if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
		return "", err
	}
	saved, err := c.core.SetAISettings(context.Background(), settings)
	if err != nil {
		return "", err
	}
	return marshalJSON(saved)
}

// ParseCreditReportJSON parses raw model text into a credit report with
// risk and decision markers. It needs no database.
func ParseCreditReportJSON(raw string) (string, error) {
	cfg := reportparse.DefaultConfig()
	report := reportparse.ParseCreditReport(raw)
	return marshalJSON(reportdesk.CreditReportResult{
		CreditReport:  report,
		RiskEmoji:     cfg.RiskMarker(report.RiskLevel),
		DecisionEmoji: cfg.DecisionMarker(report.LoanDecision),
	})
}

// ShortenInsightJSON shortens investment insight text with the default
// template.
func ShortenInsightJSON(raw, location, sector string) (string, error) {
	return marshalJSON(reportparse.NewShortener(reportparse.DefaultConfig()).Shorten(raw, location, sector))
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
