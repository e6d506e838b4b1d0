package reportdesk

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const maxAnthropicTemperature = 1.0

func requestAIByAnthropic(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	baseURL := normalizeAnthropicBaseURL(req.BaseURL)
	logAIPromptDebug(req.Logger, req.Provider, baseURL, req.Model, req.SystemPrompt, req.UserPrompt)

	client := anthropic.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(defaultInt(req.MaxTokens, defaultAIMaxTokens)),
		Temperature: anthropic.Float(math.Min(req.Temperature, maxAnthropicTemperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	if req.OnDelta == nil {
		message, err := client.Messages.New(ctx, params)
		if err != nil {
			return aiChatCompletionResult{}, fmt.Errorf("anthropic api error: %w", err)
		}
		content := anthropicText(message)
		logAIRawResponseDebug(req.Logger, req.Provider, string(message.Model), content)
		return aiChatCompletionResult{Model: string(message.Model), Content: content}, nil
	}

	stream := client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return aiChatCompletionResult{}, fmt.Errorf("anthropic stream accumulate failed: %w", err)
		}
		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
			req.OnDelta(delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("anthropic stream failed: %w", err)
	}
	content := anthropicText(&message)
	logAIRawResponseDebug(req.Logger, req.Provider, string(message.Model), content)
	return aiChatCompletionResult{Model: string(message.Model), Content: content}, nil
}

func anthropicText(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// normalizeAnthropicBaseURL returns the API root; the SDK appends /v1/messages.
func normalizeAnthropicBaseURL(raw string) string {
	trimmed := trimTrailingSlash(raw)
	if trimmed == "" {
		return aiProviderDefaults[ProviderAnthropic].BaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	lower := strings.ToLower(trimmed)
	for _, suffix := range []string{"/v1/messages", "/v1"} {
		if strings.HasSuffix(lower, suffix) {
			return trimmed[:len(trimmed)-len(suffix)]
		}
	}
	return trimmed
}
