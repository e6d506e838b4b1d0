package reportdesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	defaultAIProvider    = ProviderGroq
	defaultAITemperature = 0.7
	defaultAIMaxTokens   = 512
	maxAITemperature     = 2.0
	maxAIMaxTokens       = 8192
)

type providerDefaults struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
}

var aiProviderDefaults = map[string]providerDefaults{
	ProviderGroq: {
		BaseURL:   "https://api.groq.com/openai/v1",
		Model:     "llama-3.3-70b-versatile",
		APIKeyEnv: "GROQ_API_KEY",
	},
	ProviderOpenAI: {
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o-mini",
		APIKeyEnv: "OPENAI_API_KEY",
	},
	ProviderAnthropic: {
		BaseURL:   "https://api.anthropic.com",
		Model:     "claude-3-5-haiku-latest",
		APIKeyEnv: "ANTHROPIC_API_KEY",
	},
	ProviderGemini: {
		BaseURL:   defaultGeminiBaseURL,
		Model:     "gemini-2.0-flash",
		APIKeyEnv: "GEMINI_API_KEY",
	},
}

// DefaultAISettings returns the stock model settings: Groq's hosted
// llama-3.3-70b-versatile at temperature 0.7 with 512 output tokens.
func DefaultAISettings() AISettings {
	d := aiProviderDefaults[defaultAIProvider]
	return AISettings{
		Provider:    defaultAIProvider,
		BaseURL:     d.BaseURL,
		Model:       d.Model,
		Temperature: defaultAITemperature,
		MaxTokens:   defaultAIMaxTokens,
	}
}

// APIKeyEnv returns the environment variable holding provider's key.
func APIKeyEnv(provider string) string {
	return aiProviderDefaults[normalizeProvider(provider)].APIKeyEnv
}

func normalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if _, ok := aiProviderDefaults[p]; !ok {
		return defaultAIProvider
	}
	return p
}

func trimTrailingSlash(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.TrimRight(trimmed, "/")
}

func normalizeAISettings(settings AISettings) AISettings {
	normalized := settings
	normalized.Provider = normalizeProvider(settings.Provider)
	defaults := aiProviderDefaults[normalized.Provider]

	normalized.BaseURL = trimTrailingSlash(normalized.BaseURL)
	if normalized.BaseURL == "" {
		normalized.BaseURL = defaults.BaseURL
	}
	normalized.Model = strings.TrimSpace(normalized.Model)
	if normalized.Model == "" {
		normalized.Model = defaults.Model
	}

	if math.IsNaN(normalized.Temperature) || normalized.Temperature < 0 {
		normalized.Temperature = 0
	}
	if normalized.Temperature > maxAITemperature {
		normalized.Temperature = maxAITemperature
	}
	if normalized.MaxTokens <= 0 {
		normalized.MaxTokens = defaultAIMaxTokens
	}
	if normalized.MaxTokens > maxAIMaxTokens {
		normalized.MaxTokens = maxAIMaxTokens
	}
	return normalized
}

// GetAISettings returns persisted AI settings, or the configured defaults
// when nothing has been saved.
func (c *Core) GetAISettings(ctx context.Context) (AISettings, error) {
	var settings AISettings
	err := c.db.QueryRowContext(ctx, `
		SELECT provider, base_url, model, temperature, max_tokens
		FROM ai_settings
		WHERE id = 1
	`).Scan(
		&settings.Provider,
		&settings.BaseURL,
		&settings.Model,
		&settings.Temperature,
		&settings.MaxTokens,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return c.llm, nil
	}
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "failed to load ai settings", err)
	}
	return normalizeAISettings(settings), nil
}

// SetAISettings persists AI settings. Out of range values are clamped and an
// unknown provider falls back to groq.
func (c *Core) SetAISettings(ctx context.Context, settings AISettings) (AISettings, error) {
	normalized := normalizeAISettings(settings)

	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO ai_settings (id, provider, base_url, model, temperature, max_tokens, updated_at)
			VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				provider = excluded.provider,
				base_url = excluded.base_url,
				model = excluded.model,
				temperature = excluded.temperature,
				max_tokens = excluded.max_tokens,
				updated_at = CURRENT_TIMESTAMP
		`, normalized.Provider, normalized.BaseURL, normalized.Model, normalized.Temperature, normalized.MaxTokens)
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to save ai settings", err)
		}
		details := fmt.Sprintf("provider=%s model=%s", normalized.Provider, normalized.Model)
		return insertOperationLog(tx, OpAISettingsUpdated, normalized.Provider, details)
	})
	if err != nil {
		return AISettings{}, err
	}
	return normalized, nil
}

// resolveAISettings layers request overrides on top of stored settings.
func (c *Core) resolveAISettings(ctx context.Context, overrides AIOverrides) (AISettings, string, error) {
	settings, err := c.GetAISettings(ctx)
	if err != nil {
		return AISettings{}, "", err
	}
	if p := strings.TrimSpace(overrides.Provider); p != "" && normalizeProvider(p) != settings.Provider {
		// A different provider never inherits the stored provider's URL or model.
		settings = AISettings{
			Provider:    p,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}
	}
	if v := strings.TrimSpace(overrides.BaseURL); v != "" {
		settings.BaseURL = v
	}
	if v := strings.TrimSpace(overrides.Model); v != "" {
		settings.Model = v
	}
	settings = normalizeAISettings(settings)

	apiKey := strings.TrimSpace(overrides.APIKey)
	if apiKey == "" {
		apiKey = c.apiKey(settings.Provider)
	}
	return settings, apiKey, nil
}
