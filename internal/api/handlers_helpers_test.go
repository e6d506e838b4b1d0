package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"reportdesk/pkg/reportdesk"
)

func TestNormalizeLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 50, wantOffset: 0},
		{name: "negative offset", limit: 25, offset: -5, wantLimit: 25, wantOffset: 0},
		{name: "negative limit", limit: -1, offset: 3, wantLimit: 50, wantOffset: 3},
		{name: "capped", limit: 5000, offset: 0, wantLimit: 500, wantOffset: 0},
		{name: "pass through", limit: 10, offset: 2, wantLimit: 10, wantOffset: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := normalizeLimitOffset(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tt.wantLimit, tt.wantOffset, limit, offset)
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/insights?limit=abc&offset=7", nil)
	limit, offset := pageParams(req)
	if limit != 50 || offset != 7 {
		t.Fatalf("expected (50, 7), got (%d, %d)", limit, offset)
	}
}

func TestFormValueUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"34"`, want: "34"},
		{in: `34`, want: "34"},
		{in: `120000.50`, want: "120000.50"},
		{in: `null`, want: ""},
		{in: `"₹85,000"`, want: "₹85,000"},
		{in: `true`, wantErr: true},
		{in: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		var v formValue
		err := json.Unmarshal([]byte(tt.in), &v)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.in, err)
		}
		if string(v) != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.in, tt.want, v)
		}
	}
}

func TestAISettingsPayloadApply(t *testing.T) {
	var payload aiSettingsPayload
	if err := json.Unmarshal([]byte(`{"provider":"anthropic","max_tokens":900}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	base := reportdesk.DefaultAISettings()
	got := payload.apply(base)
	if got.Provider != "anthropic" || got.BaseURL != "" || got.Model != "" {
		t.Fatalf("provider switch should clear url and model: %+v", got)
	}
	if got.MaxTokens != 900 || got.Temperature != base.Temperature {
		t.Fatalf("unexpected numeric fields: %+v", got)
	}

	payload = aiSettingsPayload{}
	if err := json.Unmarshal([]byte(`{"provider":"groq","model":"llama-3.1-8b-instant"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got = payload.apply(base)
	if got.BaseURL != base.BaseURL || got.Model != "llama-3.1-8b-instant" {
		t.Fatalf("same provider keeps url: %+v", got)
	}
}
