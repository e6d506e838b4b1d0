package reportparse

import (
	"fmt"
	"regexp"
)

const (
	defaultEmphasisMarker    = "**"
	defaultDisclaimerPattern = `Please note that[^\n]*(?:financial advisor|investment decisions?)\.`
	defaultMaxEntries        = 3
	defaultMinEntries        = 1
	defaultSentenceLimit     = 2
	defaultFallbackLimit     = 600
	defaultEllipsis          = "…"
)

// Field identifies a scalar field of a CreditReport.
type Field string

const (
	FieldEstimatedScore Field = "estimated_score"
	FieldRequiredScore  Field = "required_score"
	FieldRiskLevel      Field = "risk_level"
	FieldLoanDecision   Field = "loan_decision"
)

// LabelRule maps a case-insensitive line prefix to a scalar field.
type LabelRule struct {
	Prefix string
	Field  Field
}

// Config holds every tunable of the parser, extractor and assembler.
type Config struct {
	// Section parser.
	LabelRules      []LabelRule
	KeyPointsPrefix string
	ReasonsPrefix   string
	NotePrefix      string
	BulletMarker    string

	// Normalizer.
	EmphasisMarker    string
	DisclaimerPattern string

	// Extractor and summarizer. InlineMarkers also accepts "<n>." markers
	// preceded by a space or tab, so "1. A 2. B" yields two entries.
	InlineMarkers bool
	MaxEntries    int
	MinEntries    int
	SentenceLimit int
	FallbackLimit int
	Ellipsis      string

	// Assembler.
	HeaderFormat     string
	SubheaderFormat  string
	EntryMarkers     []string
	OverflowMarker   string
	InsightLabel     string
	DefaultInsight   string
	DisclaimerLabel  string
	DisclaimerText   string
	InsightLineRegex string

	RiskEmoji     map[string]string
	DecisionEmoji map[string]string
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		LabelRules: []LabelRule{
			{Prefix: "estimated credit score", Field: FieldEstimatedScore},
			{Prefix: "score required for loan approval", Field: FieldRequiredScore},
			{Prefix: "risk level", Field: FieldRiskLevel},
			{Prefix: "loan approval decision", Field: FieldLoanDecision},
		},
		KeyPointsPrefix: "key points",
		ReasonsPrefix:   "reasons for this loan decision",
		NotePrefix:      "note",
		BulletMarker:    "-",

		EmphasisMarker:    defaultEmphasisMarker,
		DisclaimerPattern: defaultDisclaimerPattern,

		MaxEntries:    defaultMaxEntries,
		MinEntries:    defaultMinEntries,
		SentenceLimit: defaultSentenceLimit,
		FallbackLimit: defaultFallbackLimit,
		Ellipsis:      defaultEllipsis,

		HeaderFormat:     "📍 Top Investment Opportunities in %s – %s Sector",
		SubheaderFormat:  "🏢 Leading %s Companies:",
		EntryMarkers:     []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣"},
		OverflowMarker:   "🔹",
		InsightLabel:     "📈 Market Insight:",
		DefaultInsight:   "Sector performance depends on local regulation, demand trends and capital costs; compare several companies before committing funds.",
		DisclaimerLabel:  "⚠️ Disclaimer:",
		DisclaimerText:   "This summary is generated by an AI model for informational purposes only and is not financial advice. Do your own research before investing.",
		InsightLineRegex: `(?im)^[ \t]*market (?:insight|outlook)s?[ \t]*[:\-–][ \t]*(.+)$`,

		RiskEmoji: map[string]string{
			"Low":    "🟢",
			"Medium": "🟠",
			"High":   "🔴",
		},
		DecisionEmoji: map[string]string{
			"Approved": "✅",
			"Rejected": "❌",
		},
	}
}

// Validate reports configuration problems. Constructors never fail; they fall
// back to defaults for anything Validate would reject.
func (c Config) Validate() error {
	if _, err := regexp.Compile(c.DisclaimerPattern); err != nil {
		return fmt.Errorf("invalid disclaimer pattern: %w", err)
	}
	if _, err := regexp.Compile(c.InsightLineRegex); err != nil {
		return fmt.Errorf("invalid insight pattern: %w", err)
	}
	if c.MaxEntries <= 0 {
		return fmt.Errorf("max entries must be positive, got %d", c.MaxEntries)
	}
	if c.MinEntries < 0 || c.MinEntries > c.MaxEntries {
		return fmt.Errorf("min entries must be within [0, %d], got %d", c.MaxEntries, c.MinEntries)
	}
	if c.SentenceLimit <= 0 {
		return fmt.Errorf("sentence limit must be positive, got %d", c.SentenceLimit)
	}
	if c.FallbackLimit <= 0 {
		return fmt.Errorf("fallback limit must be positive, got %d", c.FallbackLimit)
	}
	return nil
}

// withDefaults fills zero values so components never see an unusable config.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.LabelRules) == 0 {
		c.LabelRules = d.LabelRules
	}
	if c.KeyPointsPrefix == "" {
		c.KeyPointsPrefix = d.KeyPointsPrefix
	}
	if c.ReasonsPrefix == "" {
		c.ReasonsPrefix = d.ReasonsPrefix
	}
	if c.NotePrefix == "" {
		c.NotePrefix = d.NotePrefix
	}
	if c.BulletMarker == "" {
		c.BulletMarker = d.BulletMarker
	}
	if c.EmphasisMarker == "" {
		c.EmphasisMarker = d.EmphasisMarker
	}
	if c.DisclaimerPattern == "" {
		c.DisclaimerPattern = d.DisclaimerPattern
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = d.MaxEntries
	}
	if c.MinEntries <= 0 || c.MinEntries > c.MaxEntries {
		c.MinEntries = d.MinEntries
	}
	if c.SentenceLimit <= 0 {
		c.SentenceLimit = d.SentenceLimit
	}
	if c.FallbackLimit <= 0 {
		c.FallbackLimit = d.FallbackLimit
	}
	if c.Ellipsis == "" {
		c.Ellipsis = d.Ellipsis
	}
	if c.HeaderFormat == "" {
		c.HeaderFormat = d.HeaderFormat
	}
	if c.SubheaderFormat == "" {
		c.SubheaderFormat = d.SubheaderFormat
	}
	if len(c.EntryMarkers) == 0 {
		c.EntryMarkers = d.EntryMarkers
	}
	if c.OverflowMarker == "" {
		c.OverflowMarker = d.OverflowMarker
	}
	if c.InsightLabel == "" {
		c.InsightLabel = d.InsightLabel
	}
	if c.DefaultInsight == "" {
		c.DefaultInsight = d.DefaultInsight
	}
	if c.DisclaimerLabel == "" {
		c.DisclaimerLabel = d.DisclaimerLabel
	}
	if c.DisclaimerText == "" {
		c.DisclaimerText = d.DisclaimerText
	}
	if c.InsightLineRegex == "" {
		c.InsightLineRegex = d.InsightLineRegex
	}
	if c.RiskEmoji == nil {
		c.RiskEmoji = d.RiskEmoji
	}
	if c.DecisionEmoji == nil {
		c.DecisionEmoji = d.DecisionEmoji
	}
	return c
}

// RiskMarker returns the emoji for a risk level, or "" when unmapped.
func (c Config) RiskMarker(level string) string {
	return c.RiskEmoji[level]
}

// DecisionMarker returns the emoji for a loan decision, or "" when unmapped.
func (c Config) DecisionMarker(decision string) string {
	return c.DecisionEmoji[decision]
}

func compileOr(pattern, fallback string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return regexp.MustCompile(fallback)
	}
	return re
}
