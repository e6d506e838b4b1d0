package reportparse

import (
	"regexp"
	"strings"
)

var (
	// entryMarkerRe matches a top-level "<n>." marker at the start of a line.
	entryMarkerRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.(?:[ \t]+|$)`)
	// inlineMarkerRe also matches a marker after a space or tab mid-line.
	inlineMarkerRe = regexp.MustCompile(`(?m)(?:^|[ \t])[ \t]*\d+\.(?:[ \t]+|$)`)
)

// Extractor locates numbered entries in free text.
type Extractor struct {
	marker     *regexp.Regexp
	maxEntries int
	minEntries int
}

// NewExtractor builds an Extractor from cfg.
func NewExtractor(cfg Config) *Extractor {
	cfg = cfg.withDefaults()
	marker := entryMarkerRe
	if cfg.InlineMarkers {
		marker = inlineMarkerRe
	}
	return &Extractor{
		marker:     marker,
		maxEntries: cfg.MaxEntries,
		minEntries: cfg.MinEntries,
	}
}

// Extract returns the text of each numbered entry in order of appearance.
// The "<n>." marker is not part of the returned text. By default a marker
// must start a line, so "1. A 2. B" is a single entry; set
// Config.InlineMarkers to split it. An entry runs across line breaks until
// the next marker or the end of text. Blank entries are skipped and at most
// MaxEntries are kept.
func (e *Extractor) Extract(text string) []string {
	markers := e.marker.FindAllStringIndex(text, -1)
	entries := make([]string, 0, e.maxEntries)
	for i, marker := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		entry := strings.TrimSpace(text[marker[1]:end])
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
		if len(entries) == e.maxEntries {
			break
		}
	}
	return entries
}

// Usable reports whether entries meet the configured minimum. Zero entries are
// never usable.
func (e *Extractor) Usable(entries []string) bool {
	return len(entries) > 0 && len(entries) >= e.minEntries
}
