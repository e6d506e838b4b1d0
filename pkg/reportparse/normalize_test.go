package reportparse

import (
	"reflect"
	"strings"
	"testing"
)

func TestStripBoilerplate(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(DefaultConfig())
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "emphasis only",
			in:   "**Risk Level:** High",
			want: "Risk Level: High",
		},
		{
			name: "disclaimer removed",
			in:   "1. Alpha. Please note that you should consult a financial advisor. Done",
			want: "1. Alpha.  Done",
		},
		{
			name: "investment decision wording",
			in:   "Text. Please note that this is no basis for investment decisions.",
			want: "Text. ",
		},
		{
			name: "only first disclaimer removed",
			in:   "Please note that A financial advisor. x\nPlease note that B financial advisor.",
			want: " x\nPlease note that B financial advisor.",
		},
		{
			name: "longest match within the line",
			in:   "Please note that this is not a basis for investment decisions. Consult a financial advisor. Bye",
			want: " Bye",
		},
		{
			name: "case sensitive",
			in:   "please note that you should consult a financial advisor.",
			want: "please note that you should consult a financial advisor.",
		},
		{
			name: "lone markers joined by cut",
			in:   "*Please note that nothing here replaces a financial advisor.*",
			want: "",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := n.StripBoilerplate(tc.in); got != tc.want {
				t.Fatalf("StripBoilerplate(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripBoilerplate_Idempotent(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(DefaultConfig())
	inputs := []string{
		"",
		"plain text",
		"**bold** and ***triple*** and ****quad****",
		"**Note:** Please note that markets move; ask a financial advisor. Bye",
		"* Please note that risk exists for investment decisions. *",
		"1. **Alpha**\n2. Beta\nPlease note that this is not from a financial advisor.",
	}
	for _, s := range inputs {
		once := n.StripBoilerplate(s)
		twice := n.StripBoilerplate(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", s, once, twice)
		}
		if strings.Contains(once, "**") {
			t.Fatalf("emphasis marker survived in %q", once)
		}
	}
}

func TestStripBoilerplate_CustomPattern(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EmphasisMarker = "__"
	cfg.DisclaimerPattern = `Not advice\.`
	n := NewNormalizer(cfg)

	if got := n.StripBoilerplate("__Top__ picks. Not advice. **kept**"); got != "Top picks.  **kept**" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNewNormalizer_BadPatternFallsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DisclaimerPattern = "("
	n := NewNormalizer(cfg)

	got := n.StripBoilerplate("A. Please note that you need a financial advisor.")
	if got != "A. " {
		t.Fatalf("expected default pattern to apply, got %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	got := SplitLines("  first  \r\n\n\t\nsecond\n   \nthird")
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitLines = %q, want %q", got, want)
	}
	if got := SplitLines(""); len(got) != 0 {
		t.Fatalf("expected no lines, got %q", got)
	}
}
