package reportparse

import "strings"

// Section is the parser cursor: which multi-line region the current line belongs to.
type Section int

const (
	SectionNone Section = iota
	SectionKeyPoints
	SectionReasons
	SectionNote
)

func (s Section) String() string {
	switch s {
	case SectionKeyPoints:
		return "key_points"
	case SectionReasons:
		return "reasons"
	case SectionNote:
		return "note"
	default:
		return "none"
	}
}

// CreditReport is the record extracted from a credit-report style reply.
// Absent fields stay empty; lists are never nil.
type CreditReport struct {
	EstimatedScore string   `json:"estimated_score"`
	RequiredScore  string   `json:"required_score"`
	RiskLevel      string   `json:"risk_level"`
	LoanDecision   string   `json:"loan_decision"`
	KeyPoints      []string `json:"key_points"`
	Reasons        []string `json:"reasons"`
	Note           string   `json:"note"`
}

func newCreditReport() CreditReport {
	return CreditReport{
		KeyPoints: []string{},
		Reasons:   []string{},
	}
}

func (r *CreditReport) setField(field Field, value string) {
	switch field {
	case FieldEstimatedScore:
		r.EstimatedScore = value
	case FieldRequiredScore:
		r.RequiredScore = value
	case FieldRiskLevel:
		r.RiskLevel = value
	case FieldLoanDecision:
		r.LoanDecision = value
	}
}

func (r *CreditReport) appendNote(text string) {
	if text == "" {
		return
	}
	if r.Note == "" {
		r.Note = text
		return
	}
	r.Note += " " + text
}

// SectionParser extracts labelled fields and bulleted sections from lines.
type SectionParser struct {
	rules     []LabelRule
	keyPoints string
	reasons   string
	note      string
	bullet    string
}

// NewSectionParser builds a SectionParser from cfg.
func NewSectionParser(cfg Config) *SectionParser {
	cfg = cfg.withDefaults()
	rules := make([]LabelRule, len(cfg.LabelRules))
	for i, rule := range cfg.LabelRules {
		rules[i] = LabelRule{Prefix: strings.ToLower(rule.Prefix), Field: rule.Field}
	}
	return &SectionParser{
		rules:     rules,
		keyPoints: strings.ToLower(cfg.KeyPointsPrefix),
		reasons:   strings.ToLower(cfg.ReasonsPrefix),
		note:      strings.ToLower(cfg.NotePrefix),
		bullet:    cfg.BulletMarker,
	}
}

// Parse folds lines into a CreditReport. It never fails; unrecognised lines
// outside an active section are dropped.
func (p *SectionParser) Parse(lines []string) CreditReport {
	report := newCreditReport()
	section := SectionNone
	for _, line := range lines {
		section = p.step(&report, section, line)
	}
	return report
}

// step applies one line and returns the next cursor. First matching rule wins.
func (p *SectionParser) step(report *CreditReport, section Section, line string) Section {
	lower := strings.ToLower(line)

	for _, rule := range p.rules {
		if strings.HasPrefix(lower, rule.Prefix) {
			report.setField(rule.Field, afterLastColon(line))
			return section
		}
	}

	switch {
	case strings.HasPrefix(lower, p.keyPoints):
		return SectionKeyPoints
	case strings.HasPrefix(lower, p.reasons):
		return SectionReasons
	case strings.HasPrefix(lower, p.note):
		report.Note = ""
		report.appendNote(afterFirstColon(line))
		return SectionNote
	}

	switch section {
	case SectionKeyPoints:
		if item, ok := p.bulletText(line); ok {
			report.KeyPoints = append(report.KeyPoints, item)
		}
	case SectionReasons:
		if item, ok := p.bulletText(line); ok {
			report.Reasons = append(report.Reasons, item)
		}
	case SectionNote:
		report.appendNote(line)
	}
	return section
}

func (p *SectionParser) bulletText(line string) (string, bool) {
	if !strings.HasPrefix(line, p.bullet) {
		return "", false
	}
	return strings.TrimSpace(line[len(p.bullet):]), true
}

// afterLastColon returns the trimmed text after the last colon, or the whole
// line when it has none. A colon inside the label itself is mis-split.
func afterLastColon(line string) string {
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}

func afterFirstColon(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}

// ParseCreditReport parses raw model text with the default configuration.
func ParseCreditReport(raw string) CreditReport {
	cfg := DefaultConfig()
	cleaned := NewNormalizer(cfg).StripBoilerplate(raw)
	return NewSectionParser(cfg).Parse(SplitLines(cleaned))
}
