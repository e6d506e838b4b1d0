package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"reportdesk/pkg/reportdesk"
)

// formValue accepts a JSON string or number and keeps it as text, so form
// posts and typed JSON clients decode the same way.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	*v = formValue(n.String())
	return nil
}

type aiOverridesPayload struct {
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
}

func (p aiOverridesPayload) overrides() reportdesk.AIOverrides {
	return reportdesk.AIOverrides{
		Provider: p.Provider,
		BaseURL:  p.BaseURL,
		Model:    p.Model,
		APIKey:   p.APIKey,
	}
}

type creditReportPayload struct {
	Name       formValue `json:"name"`
	Age        formValue `json:"age"`
	Income     formValue `json:"income"`
	Employment formValue `json:"employment"`
	Debts      formValue `json:"debts"`
	History    formValue `json:"history"`
	Missed     formValue `json:"missed"`
	aiOverridesPayload
}

func (p creditReportPayload) request() reportdesk.CreditReportRequest {
	return reportdesk.CreditReportRequest{
		Name:       string(p.Name),
		Age:        string(p.Age),
		Income:     string(p.Income),
		Employment: string(p.Employment),
		Debts:      string(p.Debts),
		History:    string(p.History),
		Missed:     string(p.Missed),
		AI:         p.overrides(),
	}
}

type insightPayload struct {
	Location string `json:"location"`
	Sector   string `json:"sector"`
	aiOverridesPayload
}

func (p insightPayload) request() reportdesk.InsightRequest {
	return reportdesk.InsightRequest{
		Location: p.Location,
		Sector:   p.Sector,
		AI:       p.overrides(),
	}
}

type parsePayload struct {
	Text string `json:"text"`
}

type shortenPayload struct {
	Text     string `json:"text"`
	Location string `json:"location"`
	Sector   string `json:"sector"`
}

type aiSettingsPayload struct {
	Provider    *string  `json:"provider"`
	BaseURL     *string  `json:"base_url"`
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

func (p aiSettingsPayload) apply(current reportdesk.AISettings) reportdesk.AISettings {
	if p.Provider != nil && *p.Provider != current.Provider {
		// Switching provider drops the old provider's URL and model.
		current.Provider = *p.Provider
		current.BaseURL = ""
		current.Model = ""
	}
	if p.BaseURL != nil {
		current.BaseURL = *p.BaseURL
	}
	if p.Model != nil {
		current.Model = *p.Model
	}
	if p.Temperature != nil {
		current.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		current.MaxTokens = *p.MaxTokens
	}
	return current
}

type storageInfoResponse struct {
	DBName    string   `json:"db_name"`
	DataDir   string   `json:"data_dir"`
	Available []string `json:"available"`
	reportdesk.StorageInfo
}
