package reportdesk

import "reportdesk/pkg/reportparse"

// Providers supported by the model client.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Providers lists every supported provider name.
var Providers = []string{ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// AISettings are the persisted model settings. The API key is never stored.
type AISettings struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// AIOverrides replaces stored settings for a single request.
type AIOverrides struct {
	Provider string `json:"provider,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// CreditReportRequest carries the applicant form. All fields are strings as
// submitted; GenerateCreditReport validates them.
type CreditReportRequest struct {
	Name       string      `json:"name"`
	Age        string      `json:"age"`
	Income     string      `json:"income"`
	Employment string      `json:"employment"`
	Debts      string      `json:"debts"`
	History    string      `json:"history"`
	Missed     string      `json:"missed"`
	AI         AIOverrides `json:"ai,omitempty"`
}

// CreditApplicant is a validated credit form.
type CreditApplicant struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Income         Amount `json:"income"`
	Employment     string `json:"employment"`
	Debts          Amount `json:"debts"`
	HistoryYears   int    `json:"history_years"`
	MissedPayments int    `json:"missed_payments"`
}

// CreditReportResult is a parsed report plus its display markers.
type CreditReportResult struct {
	reportparse.CreditReport
	RiskEmoji     string `json:"risk_emoji"`
	DecisionEmoji string `json:"decision_emoji"`
}

// CreditReportRecord is a saved credit report.
type CreditReportRecord struct {
	ID        int64              `json:"id"`
	UID       string             `json:"uid"`
	Applicant CreditApplicant    `json:"applicant"`
	Model     string             `json:"model"`
	Provider  string             `json:"provider"`
	Report    CreditReportResult `json:"report"`
	RawText   string             `json:"raw_text,omitempty"`
	CreatedAt string             `json:"created_at"`
}

// InsightRequest asks for investment opportunities in a sector and location.
type InsightRequest struct {
	Location string      `json:"location"`
	Sector   string      `json:"sector"`
	AI       AIOverrides `json:"ai,omitempty"`
}

// InsightRecord is a saved investment insight.
type InsightRecord struct {
	ID           int64    `json:"id"`
	UID          string   `json:"uid"`
	Location     string   `json:"location"`
	Sector       string   `json:"sector"`
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	Text         string   `json:"text"`
	Entries      []string `json:"entries"`
	Insight      string   `json:"insight"`
	UsedFallback bool     `json:"used_fallback"`
	RawText      string   `json:"raw_text,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// OperationLog records a write performed through the core.
type OperationLog struct {
	ID        int64   `json:"id"`
	Operation string  `json:"operation_type"`
	Subject   *string `json:"subject"`
	Details   *string `json:"details"`
	CreatedAt *string `json:"created_at"`
}

// Operation types written to operation_logs.
const (
	OpCreditReportCreated = "CREDIT_REPORT_CREATED"
	OpCreditReportDeleted = "CREDIT_REPORT_DELETED"
	OpInsightCreated      = "INSIGHT_CREATED"
	OpInsightDeleted      = "INSIGHT_DELETED"
	OpAISettingsUpdated   = "AI_SETTINGS_UPDATED"
)
