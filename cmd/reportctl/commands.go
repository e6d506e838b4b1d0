package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reportdesk/internal/config"
	"reportdesk/internal/logging"
	"reportdesk/pkg/reportdesk"
	"reportdesk/pkg/reportparse"
)

// aiFlags are per-request model overrides.
type aiFlags struct {
	provider string
	model    string
	baseURL  string
	stream   bool
}

func (f *aiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider (groq, openai, anthropic, gemini)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (overrides settings)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Provider base URL (overrides settings)")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "Print model output as it arrives")
}

func (f *aiFlags) overrides() reportdesk.AIOverrides {
	return reportdesk.AIOverrides{Provider: f.provider, Model: f.model, BaseURL: f.baseURL}
}

func newParseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Parse a model-written credit report",
		Long: `Parse a credit report produced by a model into its labelled fields.
Reads FILE, or standard input when FILE is omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			reportCfg := cfg.ReportConfig()
			cleaned := reportparse.NewNormalizer(reportCfg).StripBoilerplate(raw)
			parsed := reportparse.NewSectionParser(reportCfg).Parse(reportparse.SplitLines(cleaned))
			result := reportdesk.CreditReportResult{
				CreditReport:  parsed,
				RiskEmoji:     reportCfg.RiskMarker(parsed.RiskLevel),
				DecisionEmoji: reportCfg.DecisionMarker(parsed.LoanDecision),
			}
			return render(cmd.OutOrStdout(), opts.output, result, func(w io.Writer) {
				printCreditReport(w, result)
			})
		},
	}
}

func newShortenCmd(opts *globalOptions) *cobra.Command {
	var location, sector string

	cmd := &cobra.Command{
		Use:   "shorten [FILE]",
		Short: "Shorten investment insight text into the report template",
		Long: `Extract the numbered companies from investment insight text, keep the
first sentences of each, and render the short report. Text without usable
entries is truncated instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(location) == "" || strings.TrimSpace(sector) == "" {
				return errors.New("--location and --sector are required")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			report := reportparse.NewShortener(cfg.ReportConfig()).Shorten(raw, location, sector)
			return render(cmd.OutOrStdout(), opts.output, report, func(w io.Writer) {
				printShortened(w, cmd.ErrOrStderr(), report)
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Location named in the report header")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector named in the report header")
	return cmd
}

func newCreditCmd(opts *globalOptions) *cobra.Command {
	var req reportdesk.CreditReportRequest
	ai := &aiFlags{}

	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Generate a credit report with the configured model",
		Example: `  reportctl credit --name Asha --age 34 --income 85000 --employment Salaried \
    --debts 120000 --history 8 --missed 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.AI = ai.overrides()
			if _, err := reportdesk.ValidateCreditReportRequest(req); err != nil {
				return err
			}
			core, closeCore, err := openCore(opts)
			if err != nil {
				return err
			}
			defer closeCore()

			record, err := withProgress(cmd, ai.stream, "Generating credit report...", func(ctx context.Context, onDelta func(string)) (*reportdesk.CreditReportRecord, error) {
				if onDelta != nil {
					return core.GenerateCreditReportStream(ctx, req, onDelta)
				}
				return core.GenerateCreditReport(ctx, req)
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Saved credit report %s (%s/%s)", record.UID, record.Provider, record.Model))
			return render(cmd.OutOrStdout(), opts.output, record, func(w io.Writer) {
				printCreditReport(w, record.Report)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "Applicant name")
	flags.StringVar(&req.Age, "age", "", "Applicant age in years")
	flags.StringVar(&req.Income, "income", "", "Monthly income")
	flags.StringVar(&req.Employment, "employment", "", "Employment status")
	flags.StringVar(&req.Debts, "debts", "", "Total current debt")
	flags.StringVar(&req.History, "history", "", "Credit history length in years")
	flags.StringVar(&req.Missed, "missed", "", "Missed payments in the last 12 months")
	ai.register(cmd)
	return cmd
}

func newInsightCmd(opts *globalOptions) *cobra.Command {
	var req reportdesk.InsightRequest
	ai := &aiFlags{}

	cmd := &cobra.Command{
		Use:     "insight",
		Short:   "Generate a shortened investment insight with the configured model",
		Example: `  reportctl insight --location Texas --sector Energy`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(req.Location) == "" || strings.TrimSpace(req.Sector) == "" {
				return errors.New("--location and --sector are required")
			}
			req.AI = ai.overrides()
			core, closeCore, err := openCore(opts)
			if err != nil {
				return err
			}
			defer closeCore()

			record, err := withProgress(cmd, ai.stream, "Researching "+req.Sector+" in "+req.Location+"...", func(ctx context.Context, onDelta func(string)) (*reportdesk.InsightRecord, error) {
				if onDelta != nil {
					return core.GenerateInsightStream(ctx, req, onDelta)
				}
				return core.GenerateInsight(ctx, req)
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Saved insight %s (%s/%s)", record.UID, record.Provider, record.Model))
			return render(cmd.OutOrStdout(), opts.output, record, func(w io.Writer) {
				printShortened(w, cmd.ErrOrStderr(), reportparse.ShortenedReport{
					Text:         record.Text,
					Entries:      record.Entries,
					Insight:      record.Insight,
					UsedFallback: record.UsedFallback,
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.Location, "location", "", "Location to research")
	cmd.Flags().StringVar(&req.Sector, "sector", "", "Sector to research")
	ai.register(cmd)
	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:       "history {credit|insights}",
		Short:     "List saved reports, newest first",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"credit", "insights"},
		RunE: func(cmd *cobra.Command, args []string) error {
			core, closeCore, err := openCore(opts)
			if err != nil {
				return err
			}
			defer closeCore()

			ctx := cmd.Context()
			switch args[0] {
			case "credit":
				records, err := core.ListCreditReports(ctx, limit, offset)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, records, func(w io.Writer) {
					printCreditHistory(w, records)
				})
			case "insights":
				records, err := core.ListInsights(ctx, limit, offset)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, records, func(w io.Writer) {
					printInsightHistory(w, records)
				})
			default:
				return fmt.Errorf("unknown report kind %q (want credit or insights)", args[0])
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of records to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of records to skip")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:       "export {credit|insights}",
		Short:     "Export saved reports as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"credit", "insights"},
		RunE: func(cmd *cobra.Command, args []string) error {
			core, closeCore, err := openCore(opts)
			if err != nil {
				return err
			}
			defer closeCore()

			var buf bytes.Buffer
			switch args[0] {
			case "credit":
				err = core.ExportCreditReportsCSV(cmd.Context(), &buf)
			case "insights":
				err = core.ExportInsightsCSV(cmd.Context(), &buf)
			default:
				return fmt.Errorf("unknown report kind %q (want credit or insights)", args[0])
			}
			if err != nil {
				return err
			}

			if file == "" || file == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			printSuccess(cmd.ErrOrStderr(), "Exported to "+file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default stdout)")
	return cmd
}

// loadConfig reads the env file and config.yaml named by the global flags.
func loadConfig(opts *globalOptions) (config.AppConfig, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.AppConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.AppConfig{}, err
	}
	if opts.dataDir != "" {
		config.SetRuntimeDataDir(opts.dataDir)
	}
	return cfg, nil
}

// openCore opens the shared database. Logs go to the data directory only so
// they never mix with command output.
func openCore(opts *globalOptions) (*reportdesk.Core, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	dataDir, err := config.GetDataDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger, logCloser, err := logging.New(logging.Options{
		Dir:     filepath.Join(dataDir, "logs"),
		Level:   slog.LevelInfo,
		Console: io.Discard,
		Service: "reportctl",
	})
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := config.GetDBPath(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	core, err := reportdesk.OpenWithOptions(cfg.CoreOptions(dbPath, logger))
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	return core, func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
		_ = logCloser.Close()
	}, nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// withProgress runs a model call behind a spinner, or echoes deltas to stderr
// when streaming.
func withProgress[T any](cmd *cobra.Command, stream bool, label string, run func(ctx context.Context, onDelta func(string)) (T, error)) (T, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if stream {
		errOut := cmd.ErrOrStderr()
		result, err := run(ctx, func(delta string) {
			fmt.Fprint(errOut, delta)
		})
		fmt.Fprintln(errOut)
		return result, err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + label
	s.Start()
	result, err := run(ctx, nil)
	s.Stop()
	if err != nil {
		printError(cmd.ErrOrStderr(), label+" failed")
	}
	return result, err
}
