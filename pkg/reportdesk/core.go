package reportdesk

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"reportdesk/pkg/reportparse"
)

const defaultRequestTimeout = 2 * time.Minute

// Options controls Core initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger

	// LLM holds the model defaults used until settings are saved. A zero value
	// selects DefaultAISettings.
	LLM AISettings
	// APIKeys maps provider name to key. Missing providers fall back to the
	// provider's environment variable.
	APIKeys map[string]string
	// Report tunes the parser, extractor and assembler.
	Report reportparse.Config

	RequestTimeout    time.Duration
	RequestsPerMinute int
	RequestBurst      int
	TimeZone          string
}

// Core provides the report flows and their storage.
type Core struct {
	db        *sql.DB
	logger    *slog.Logger
	dbPath    string
	limiter   *rate.Limiter
	timeout   time.Duration
	llm       AISettings
	apiKeys   map[string]string
	report    reportparse.Config
	parser    *reportparse.SectionParser
	shortener *reportparse.Shortener
	location  *time.Location
	clock     func() time.Time
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Report.Validate(); err != nil && !isZeroReportConfig(opts.Report) {
		logger.Warn("report config invalid; defaults fill the gaps", "err", err)
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	llm := opts.LLM
	if llm == (AISettings{}) {
		llm = DefaultAISettings()
	}

	return &Core{
		db:        db,
		logger:    logger,
		dbPath:    cleanPath,
		limiter:   newLimiter(opts.RequestsPerMinute, opts.RequestBurst),
		timeout:   defaultDuration(opts.RequestTimeout, defaultRequestTimeout),
		llm:       normalizeAISettings(llm),
		apiKeys:   opts.APIKeys,
		report:    opts.Report,
		parser:    reportparse.NewSectionParser(opts.Report),
		shortener: reportparse.NewShortener(opts.Report),
		location:  loadLocation(opts.TimeZone),
		clock:     time.Now,
	}, nil
}

// newLimiter spreads requests per minute evenly; zero disables limiting.
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	limit := rate.Limit(float64(rpm) / 60.0)
	return rate.NewLimiter(limit, defaultInt(burst, 1))
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Logger returns the logger the core writes to.
func (c *Core) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// ParseCreditReport runs the section parser over raw model text without
// calling a model.
func (c *Core) ParseCreditReport(raw string) CreditReportResult {
	return c.decorate(c.parser.Parse(reportparse.SplitLines(c.shortener.Normalizer().StripBoilerplate(raw))))
}

// ShortenInsight runs the insight pipeline over raw model text without
// calling a model.
func (c *Core) ShortenInsight(raw, location, sector string) reportparse.ShortenedReport {
	return c.shortener.Shorten(raw, location, sector)
}

func (c *Core) decorate(report reportparse.CreditReport) CreditReportResult {
	return CreditReportResult{
		CreditReport:  report,
		RiskEmoji:     c.reportConfig().RiskMarker(report.RiskLevel),
		DecisionEmoji: c.reportConfig().DecisionMarker(report.LoanDecision),
	}
}

func (c *Core) reportConfig() reportparse.Config {
	cfg := c.report
	if cfg.RiskEmoji == nil {
		cfg.RiskEmoji = reportparse.DefaultConfig().RiskEmoji
	}
	if cfg.DecisionEmoji == nil {
		cfg.DecisionEmoji = reportparse.DefaultConfig().DecisionEmoji
	}
	return cfg
}

func isZeroReportConfig(cfg reportparse.Config) bool {
	return cfg.MaxEntries == 0 && cfg.SentenceLimit == 0 && cfg.FallbackLimit == 0 &&
		cfg.DisclaimerPattern == "" && cfg.InsightLineRegex == ""
}

func defaultDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultInt(v int, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
