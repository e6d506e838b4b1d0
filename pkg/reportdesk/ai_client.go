package reportdesk

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

type aiChatCompletionRequest struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	Logger       *slog.Logger
	// OnDelta receives streamed text as it arrives. Nil disables streaming.
	OnDelta func(delta string)
}

type aiChatCompletionResult struct {
	Model   string
	Content string
}

var aiChatCompletion = requestAIChatCompletion

func requestAIChatCompletion(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	switch normalizeProvider(req.Provider) {
	case ProviderAnthropic:
		return requestAIByAnthropic(ctx, req)
	case ProviderGemini:
		return requestAIByGeminiNative(ctx, req)
	default:
		return requestAIByChatCompletions(ctx, req)
	}
}

// completeChat sends one prompt through the configured provider. It waits on
// the rate limiter, bounds the call with the request timeout, and rejects
// empty completions.
func (c *Core) completeChat(ctx context.Context, settings AISettings, apiKey, systemPrompt, userPrompt string, onDelta func(string)) (aiChatCompletionResult, error) {
	if apiKey == "" {
		return aiChatCompletionResult{}, NewError(ErrCodeValidation,
			fmt.Sprintf("api key for %s is not configured (set %s)", settings.Provider, APIKeyEnv(settings.Provider)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return aiChatCompletionResult{}, WrapError(ErrCodeUpstream, "rate limiter wait failed", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logger := c.Logger()
	started := time.Now()
	result, err := aiChatCompletion(ctx, aiChatCompletionRequest{
		Provider:     settings.Provider,
		BaseURL:      settings.BaseURL,
		APIKey:       apiKey,
		Model:        settings.Model,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  settings.Temperature,
		MaxTokens:    settings.MaxTokens,
		Logger:       logger,
		OnDelta:      onDelta,
	})
	if err != nil {
		logger.Warn("model request failed",
			"provider", settings.Provider,
			"model", settings.Model,
			"duration_ms", time.Since(started).Milliseconds(),
			"err", err,
		)
		return aiChatCompletionResult{}, WrapError(ErrCodeUpstream, "model request failed", err)
	}

	result.Content = strings.TrimSpace(result.Content)
	if result.Content == "" {
		return aiChatCompletionResult{}, NewError(ErrCodeUpstream, "model returned empty content")
	}
	if strings.TrimSpace(result.Model) == "" {
		result.Model = settings.Model
	}
	logger.Info("model request completed",
		"provider", settings.Provider,
		"model", result.Model,
		"duration_ms", time.Since(started).Milliseconds(),
		"content_bytes", len(result.Content),
	)
	return result, nil
}

func (c *Core) apiKey(provider string) string {
	if key := strings.TrimSpace(c.apiKeys[provider]); key != "" {
		return key
	}
	if env := APIKeyEnv(provider); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// normalizeAIClientBaseURL turns a configured URL into the base an
// OpenAI-compatible client expects. Endpoint suffixes are stripped and a
// bare host gets /v1.
func normalizeAIClientBaseURL(raw, fallback string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	lower := strings.ToLower(trimmed)

	base := trimmed
	switch {
	case strings.HasSuffix(lower, "/chat/completions"):
		base = trimmed[:len(trimmed)-len("/chat/completions")]
	case strings.HasSuffix(lower, "/responses"):
		base = trimmed[:len(trimmed)-len("/responses")]
	case strings.HasSuffix(lower, "/v1"):
	default:
		base = trimmed + "/v1"
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid base_url scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid base_url host")
	}
	return base, nil
}

func logAIPromptDebug(logger *slog.Logger, provider, baseURL, model, systemPrompt, userPrompt string) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("ai request prompt",
		"provider", provider,
		"base_url", strings.TrimSpace(baseURL),
		"model", strings.TrimSpace(model),
		"system_prompt", systemPrompt,
		"user_prompt", userPrompt,
	)
}

func logAIRawResponseDebug(logger *slog.Logger, provider, model, content string) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("ai raw response",
		"provider", provider,
		"model", model,
		"content_bytes", len(content),
		"raw_content", content,
	)
}
