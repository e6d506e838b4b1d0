package reportparse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const sentenceSeparator = ". "

var lineBreakRe = regexp.MustCompile(`[ \t]*\r?\n[ \t\r\n]*`)

// Summarizer shortens entries and truncates text that has no entries.
type Summarizer struct {
	sentenceLimit int
	fallbackLimit int
	ellipsis      string
}

// NewSummarizer builds a Summarizer from cfg.
func NewSummarizer(cfg Config) *Summarizer {
	cfg = cfg.withDefaults()
	return &Summarizer{
		sentenceLimit: cfg.SentenceLimit,
		fallbackLimit: cfg.FallbackLimit,
		ellipsis:      cfg.Ellipsis,
	}
}

// SummarizeEntry keeps the first sentences of entry, split on ". ", on a
// single line. A sentence ending at a line break does not end a segment.
func (s *Summarizer) SummarizeEntry(entry string) string {
	segments := strings.Split(entry, sentenceSeparator)
	dropped := len(segments) > s.sentenceLimit
	if dropped {
		segments = segments[:s.sentenceLimit]
	}
	kept := strings.TrimSpace(lineBreakRe.ReplaceAllString(strings.Join(segments, sentenceSeparator), " "))
	if dropped && kept != "" && !strings.ContainsAny(kept[len(kept)-1:], ".!?") {
		kept += "."
	}
	return kept
}

// FallbackTruncate cuts text to FallbackLimit characters plus an ellipsis.
// Text at or under the limit is returned unchanged. Bytes before the cut are
// kept as they are, invalid UTF-8 included.
func (s *Summarizer) FallbackTruncate(text string) string {
	if utf8.RuneCountInString(text) <= s.fallbackLimit {
		return text
	}
	off := 0
	for i := 0; i < s.fallbackLimit; i++ {
		_, size := utf8.DecodeRuneInString(text[off:])
		off += size
	}
	return text[:off] + s.ellipsis
}
