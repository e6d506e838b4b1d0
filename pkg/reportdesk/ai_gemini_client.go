package reportdesk

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func requestAIByGeminiNative(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	logAIPromptDebug(req.Logger, req.Provider, req.BaseURL, req.Model, req.SystemPrompt, req.UserPrompt)

	if shouldFallbackToGeminiDefaultBaseURL(req.BaseURL) {
		logger := req.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("gemini request uses a non-gemini base url; fallback to gemini base url",
			"configured_base_url", req.BaseURL,
			"fallback_base_url", defaultGeminiBaseURL,
		)
	}

	clientConfig, err := buildGeminiClientConfig(req.BaseURL, req.APIKey)
	if err != nil {
		return aiChatCompletionResult{}, err
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("create gemini client failed: %w", err)
	}

	requestConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(defaultInt(req.MaxTokens, defaultAIMaxTokens)),
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		requestConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	contents := genai.Text(req.UserPrompt)

	if req.OnDelta == nil {
		response, err := client.Models.GenerateContent(ctx, req.Model, contents, requestConfig)
		if err != nil {
			return aiChatCompletionResult{}, fmt.Errorf("gemini generate content failed: %w", err)
		}
		content := response.Text()
		model := strings.TrimSpace(response.ModelVersion)
		if model == "" {
			model = req.Model
		}
		logAIRawResponseDebug(req.Logger, req.Provider, model, content)
		return aiChatCompletionResult{Model: model, Content: content}, nil
	}

	accumulated := ""
	model := ""
	for response, err := range client.Models.GenerateContentStream(ctx, req.Model, contents, requestConfig) {
		if err != nil {
			return aiChatCompletionResult{}, fmt.Errorf("gemini stream generate content failed: %w", err)
		}
		if response == nil {
			continue
		}
		if model == "" {
			model = strings.TrimSpace(response.ModelVersion)
		}

		chunkText := response.Text()
		if chunkText == "" {
			continue
		}
		// Some gateways resend the full text so far instead of a delta.
		delta := chunkText
		if accumulated != "" && strings.HasPrefix(chunkText, accumulated) {
			delta = chunkText[len(accumulated):]
		}
		if delta == "" {
			continue
		}
		accumulated += delta
		req.OnDelta(delta)
	}

	if model == "" {
		model = req.Model
	}
	logAIRawResponseDebug(req.Logger, req.Provider, model, accumulated)
	return aiChatCompletionResult{Model: model, Content: accumulated}, nil
}

func buildGeminiClientConfig(baseURL, apiKey string) (*genai.ClientConfig, error) {
	normalized := strings.TrimSpace(baseURL)
	if shouldFallbackToGeminiDefaultBaseURL(normalized) {
		normalized = defaultGeminiBaseURL
	}

	base, apiVersion, err := parseGeminiBaseURLAndVersion(normalized)
	if err != nil {
		return nil, err
	}
	return &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    base,
			APIVersion: apiVersion,
		},
	}, nil
}

// shouldFallbackToGeminiDefaultBaseURL reports whether baseURL is empty or
// points at another provider's default host.
func shouldFallbackToGeminiDefaultBaseURL(baseURL string) bool {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return true
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for provider, defaults := range aiProviderDefaults {
		if provider == ProviderGemini {
			continue
		}
		if u, err := url.Parse(defaults.BaseURL); err == nil && strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return false
}

func parseGeminiBaseURLAndVersion(endpoint string) (string, string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultGeminiBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("invalid gemini endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("invalid gemini endpoint scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("invalid gemini endpoint host")
	}

	path := strings.Trim(parsed.Path, "/")
	segments := []string{}
	if path != "" {
		segments = strings.Split(path, "/")
	}

	apiVersion := "v1beta"
	prefixSegments := segments
	for idx, segment := range segments {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(segment)), "v1") {
			apiVersion = segment
			prefixSegments = segments[:idx]
			break
		}
	}

	basePath := strings.Trim(strings.Join(prefixSegments, "/"), "/")
	base := fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
	if basePath != "" {
		base += basePath + "/"
	}
	return base, apiVersion, nil
}
