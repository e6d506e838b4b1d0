package reportdesk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestDB creates a temporary database for testing and returns a Core instance.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()
	return setupTestDBWithOptions(t, Options{})
}

func setupTestDBWithOptions(t *testing.T, opts Options) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reportdesk-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	opts.DBPath = filepath.Join(tmpDir, "test.db")
	if opts.APIKeys == nil {
		opts.APIKeys = map[string]string{
			ProviderGroq:      "groq-test-key",
			ProviderOpenAI:    "openai-test-key",
			ProviderAnthropic: "anthropic-test-key",
			ProviderGemini:    "gemini-test-key",
		}
	}
	core, err := OpenWithOptions(opts)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// stubAIChat replaces the model call for the duration of the test.
func stubAIChat(t *testing.T, fn func(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error)) {
	t.Helper()
	original := aiChatCompletion
	aiChatCompletion = fn
	t.Cleanup(func() { aiChatCompletion = original })
}

// stubAIReply makes every model call return content from model.
func stubAIReply(t *testing.T, model, content string) *[]aiChatCompletionRequest {
	t.Helper()
	var calls []aiChatCompletionRequest
	stubAIChat(t, func(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
		calls = append(calls, req)
		if req.OnDelta != nil {
			for _, line := range strings.SplitAfter(content, "\n") {
				req.OnDelta(line)
			}
		}
		return aiChatCompletionResult{Model: model, Content: content}, nil
	})
	return &calls
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertErrorCode fails the test unless err carries code.
func assertErrorCode(t *testing.T, err error, code ErrorCode, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %s error but got nil", msg, code)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("%s: expected %s, got %v", msg, code, err)
	}
}

// assertContains checks if the string contains the substring.
func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}

const sampleCreditReply = `**Estimated Credit Score:** 720
**Score Required for Loan Approval:** 650
**Risk Level:** Low
**Loan Approval Decision:** Approved

**Key Points**
- Stable income
- Long credit history

**Reasons for this loan decision**
- Score exceeds threshold

Note: Review recommended in 6 months.`

func validCreditRequest() CreditReportRequest {
	return CreditReportRequest{
		Name:       "Asha",
		Age:        "34",
		Income:     "₹85,000",
		Employment: "Salaried",
		Debts:      "120000.50",
		History:    "8",
		Missed:     "0",
	}
}
