package reportdesk

import (
	"context"
	"testing"
)

func TestGetAISettingsDefaults(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	settings, err := core.GetAISettings(context.Background())
	assertNoError(t, err, "get defaults")

	if settings != DefaultAISettings() {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.Provider != "groq" || settings.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected provider/model: %+v", settings)
	}
	if settings.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected base url: %q", settings.BaseURL)
	}
	if settings.Temperature != 0.7 || settings.MaxTokens != 512 {
		t.Fatalf("unexpected sampling settings: %+v", settings)
	}
}

func TestGetAISettingsUsesConfiguredDefaults(t *testing.T) {
	core, cleanup := setupTestDBWithOptions(t, Options{
		LLM: AISettings{Provider: "openai", Temperature: 0.2, MaxTokens: 1024},
	})
	defer cleanup()

	settings, err := core.GetAISettings(context.Background())
	assertNoError(t, err, "get defaults")
	want := AISettings{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	if settings != want {
		t.Fatalf("got %+v want %+v", settings, want)
	}
}

func TestSetAISettingsPersistsAndNormalizes(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := core.SetAISettings(ctx, AISettings{
		Provider:    " OpenAI ",
		BaseURL:     " https://example.com/v1/ ",
		Model:       " gpt-4o ",
		Temperature: 1.1,
		MaxTokens:   900,
	})
	assertNoError(t, err, "set ai settings")

	want := AISettings{
		Provider:    "openai",
		BaseURL:     "https://example.com/v1",
		Model:       "gpt-4o",
		Temperature: 1.1,
		MaxTokens:   900,
	}
	if saved != want {
		t.Fatalf("saved %+v want %+v", saved, want)
	}

	loaded, err := core.GetAISettings(ctx)
	assertNoError(t, err, "get ai settings")
	if loaded != saved {
		t.Fatalf("loaded settings mismatch: got %+v, want %+v", loaded, saved)
	}

	logs, err := core.GetOperationLogs(ctx, 10, 0)
	assertNoError(t, err, "get operation logs")
	if len(logs) != 1 || logs[0].Operation != OpAISettingsUpdated {
		t.Fatalf("expected one settings log, got %+v", logs)
	}
}

func TestSetAISettingsClampsAndFallsBack(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	saved, err := core.SetAISettings(context.Background(), AISettings{
		Provider:    "mystery",
		Temperature: 9,
		MaxTokens:   100000,
	})
	assertNoError(t, err, "set ai settings")

	if saved.Provider != "groq" {
		t.Fatalf("unknown provider should fall back to groq, got %q", saved.Provider)
	}
	if saved.BaseURL != "https://api.groq.com/openai/v1" || saved.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("expected groq defaults, got %+v", saved)
	}
	if saved.Temperature != 2 {
		t.Fatalf("temperature should clamp to 2, got %v", saved.Temperature)
	}
	if saved.MaxTokens != 8192 {
		t.Fatalf("max tokens should clamp to 8192, got %d", saved.MaxTokens)
	}

	saved, err = core.SetAISettings(context.Background(), AISettings{Provider: "gemini", Temperature: -1})
	assertNoError(t, err, "set ai settings")
	if saved.Temperature != 0 || saved.MaxTokens != 512 {
		t.Fatalf("expected clamped temperature and default tokens, got %+v", saved)
	}
	if saved.BaseURL != defaultGeminiBaseURL {
		t.Fatalf("unexpected gemini base url: %q", saved.BaseURL)
	}
}

func TestResolveAISettingsOverrides(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := core.SetAISettings(ctx, AISettings{Provider: "groq", Model: "llama-3.1-8b-instant", Temperature: 0.3, MaxTokens: 300})
	assertNoError(t, err, "set ai settings")

	settings, key, err := core.resolveAISettings(ctx, AIOverrides{})
	assertNoError(t, err, "resolve without overrides")
	if settings.Model != "llama-3.1-8b-instant" || key != "groq-test-key" {
		t.Fatalf("unexpected stored resolution: %+v key=%q", settings, key)
	}

	settings, key, err = core.resolveAISettings(ctx, AIOverrides{Provider: "anthropic", APIKey: " request-key "})
	assertNoError(t, err, "resolve provider override")
	if settings.Provider != "anthropic" || settings.Model != "claude-3-5-haiku-latest" {
		t.Fatalf("provider override should reset model: %+v", settings)
	}
	if settings.BaseURL != "https://api.anthropic.com" {
		t.Fatalf("provider override should reset base url: %q", settings.BaseURL)
	}
	if settings.Temperature != 0.3 || settings.MaxTokens != 300 {
		t.Fatalf("sampling settings should carry over: %+v", settings)
	}
	if key != "request-key" {
		t.Fatalf("request api key should win, got %q", key)
	}

	settings, _, err = core.resolveAISettings(ctx, AIOverrides{Model: "custom-model", BaseURL: "https://proxy.local/v1/"})
	assertNoError(t, err, "resolve model override")
	if settings.Model != "custom-model" || settings.BaseURL != "https://proxy.local/v1" {
		t.Fatalf("unexpected override resolution: %+v", settings)
	}
}

func TestAPIKeyFallsBackToEnvironment(t *testing.T) {
	core, cleanup := setupTestDBWithOptions(t, Options{APIKeys: map[string]string{}})
	defer cleanup()

	t.Setenv("GROQ_API_KEY", "from-env")
	if got := core.apiKey(ProviderGroq); got != "from-env" {
		t.Fatalf("expected env key, got %q", got)
	}
	if got := APIKeyEnv("unknown"); got != "GROQ_API_KEY" {
		t.Fatalf("unknown provider should map to groq env, got %q", got)
	}
}
