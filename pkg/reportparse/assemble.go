package reportparse

import (
	"fmt"
	"regexp"
	"strings"
)

// Assembler renders the shortened investment report template.
type Assembler struct {
	header          string
	subheader       string
	markers         []string
	overflow        string
	insightLabel    string
	defaultInsight  string
	disclaimerLabel string
	disclaimer      string
}

// NewAssembler builds an Assembler from cfg.
func NewAssembler(cfg Config) *Assembler {
	cfg = cfg.withDefaults()
	return &Assembler{
		header:          cfg.HeaderFormat,
		subheader:       cfg.SubheaderFormat,
		markers:         cfg.EntryMarkers,
		overflow:        cfg.OverflowMarker,
		insightLabel:    cfg.InsightLabel,
		defaultInsight:  cfg.DefaultInsight,
		disclaimerLabel: cfg.DisclaimerLabel,
		disclaimer:      cfg.DisclaimerText,
	}
}

// Assemble composes the report around numbered entries, using the default
// market insight. location and sector are inserted verbatim.
func (a *Assembler) Assemble(entries []string, location, sector string) string {
	return a.AssembleWithInsight(entries, location, sector, "")
}

// AssembleWithInsight is Assemble with an explicit insight paragraph; an empty
// insight selects the default one.
func (a *Assembler) AssembleWithInsight(entries []string, location, sector, insight string) string {
	blocks := make([]string, 0, len(entries))
	for i, entry := range entries {
		blocks = append(blocks, a.marker(i)+" "+entry)
	}
	return a.render(blocks, location, sector, insight)
}

// AssembleBody composes the report around a single unnumbered body.
func (a *Assembler) AssembleBody(body, location, sector, insight string) string {
	var blocks []string
	if strings.TrimSpace(body) != "" {
		blocks = []string{body}
	}
	return a.render(blocks, location, sector, insight)
}

func (a *Assembler) render(blocks []string, location, sector, insight string) string {
	if strings.TrimSpace(insight) == "" {
		insight = a.defaultInsight
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(a.header, location, sector))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(a.subheader, sector))
	sb.WriteString("\n\n")
	if len(blocks) > 0 {
		sb.WriteString(strings.Join(blocks, "\n\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString(a.insightLabel + " " + insight)
	sb.WriteString("\n\n")
	sb.WriteString(a.disclaimerLabel + " " + a.disclaimer)
	return sb.String()
}

func (a *Assembler) marker(i int) string {
	if i < len(a.markers) {
		return a.markers[i]
	}
	return a.overflow
}

// ShortenedReport is the display text of the investment-insight flow.
type ShortenedReport struct {
	Text         string   `json:"text"`
	Entries      []string `json:"entries"`
	Insight      string   `json:"insight"`
	UsedFallback bool     `json:"used_fallback"`
}

// Shortener runs the whole investment-insight pipeline over raw model text.
type Shortener struct {
	normalizer *Normalizer
	extractor  *Extractor
	summarizer *Summarizer
	assembler  *Assembler
	insightRe  *regexp.Regexp
}

// NewShortener builds a Shortener from cfg.
func NewShortener(cfg Config) *Shortener {
	cfg = cfg.withDefaults()
	return &Shortener{
		normalizer: NewNormalizer(cfg),
		extractor:  NewExtractor(cfg),
		summarizer: NewSummarizer(cfg),
		assembler:  NewAssembler(cfg),
		insightRe:  compileOr(cfg.InsightLineRegex, DefaultConfig().InsightLineRegex),
	}
}

// Shorten strips boilerplate, pulls out the market insight line, extracts and
// summarizes numbered entries, and assembles the report. When the entries are
// not usable the cleaned text is truncated instead.
func (s *Shortener) Shorten(raw, location, sector string) ShortenedReport {
	cleaned := s.normalizer.StripBoilerplate(raw)

	insight := ""
	if loc := s.insightRe.FindStringSubmatchIndex(cleaned); loc != nil {
		insight = strings.TrimSpace(cleaned[loc[2]:loc[3]])
		cleaned = cleaned[:loc[0]] + cleaned[loc[1]:]
	}

	entries := s.extractor.Extract(cleaned)
	if !s.extractor.Usable(entries) {
		body := s.summarizer.FallbackTruncate(strings.TrimSpace(cleaned))
		return ShortenedReport{
			Text:         s.assembler.AssembleBody(body, location, sector, insight),
			Entries:      []string{},
			Insight:      s.insightOrDefault(insight),
			UsedFallback: true,
		}
	}

	summaries := make([]string, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, s.summarizer.SummarizeEntry(entry))
	}
	return ShortenedReport{
		Text:    s.assembler.AssembleWithInsight(summaries, location, sector, insight),
		Entries: summaries,
		Insight: s.insightOrDefault(insight),
	}
}

func (s *Shortener) insightOrDefault(insight string) string {
	if insight == "" {
		return s.assembler.defaultInsight
	}
	return insight
}

// Normalizer exposes the shortener's normalizer.
func (s *Shortener) Normalizer() *Normalizer {
	return s.normalizer
}

// Summarizer exposes the shortener's summarizer.
func (s *Shortener) Summarizer() *Summarizer {
	return s.summarizer
}
