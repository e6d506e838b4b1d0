package reportdesk

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// requestAIByChatCompletions serves Groq, OpenAI and any other
// OpenAI-compatible endpoint.
func requestAIByChatCompletions(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	fallback := aiProviderDefaults[normalizeProvider(req.Provider)].BaseURL
	baseURL, err := normalizeAIClientBaseURL(req.BaseURL, fallback)
	if err != nil {
		return aiChatCompletionResult{}, err
	}
	logAIPromptDebug(req.Logger, req.Provider, baseURL, req.Model, req.SystemPrompt, req.UserPrompt)

	client := openai.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if req.OnDelta == nil {
		completion, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return aiChatCompletionResult{}, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return aiChatCompletionResult{}, fmt.Errorf("chat completion returned no choices")
		}
		content := completion.Choices[0].Message.Content
		logAIRawResponseDebug(req.Logger, req.Provider, completion.Model, content)
		return aiChatCompletionResult{Model: completion.Model, Content: content}, nil
	}

	stream := client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			req.OnDelta(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("chat completion stream failed: %w", err)
	}
	if len(acc.Choices) == 0 {
		return aiChatCompletionResult{}, fmt.Errorf("chat completion stream returned no choices")
	}
	content := acc.Choices[0].Message.Content
	logAIRawResponseDebug(req.Logger, req.Provider, acc.Model, content)
	return aiChatCompletionResult{Model: acc.Model, Content: content}, nil
}
