package reportparse

import (
	"regexp"
	"strings"
)

// Normalizer strips boilerplate from raw model text.
type Normalizer struct {
	emphasis   string
	disclaimer *regexp.Regexp
}

// NewNormalizer builds a Normalizer from cfg.
func NewNormalizer(cfg Config) *Normalizer {
	cfg = cfg.withDefaults()
	return &Normalizer{
		emphasis:   cfg.EmphasisMarker,
		disclaimer: compileOr(cfg.DisclaimerPattern, defaultDisclaimerPattern),
	}
}

// StripBoilerplate removes emphasis markers and the first disclaimer match.
// Matching is case-sensitive.
func (n *Normalizer) StripBoilerplate(raw string) string {
	text := strings.ReplaceAll(raw, n.emphasis, "")
	if loc := n.disclaimer.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}
	// Cutting the disclaimer can join two lone markers into a new one.
	return strings.ReplaceAll(text, n.emphasis, "")
}

// SplitLines splits raw on newlines, trims each line and drops blank ones.
func SplitLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		line := strings.TrimSpace(part)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
