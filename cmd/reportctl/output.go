package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"reportdesk/pkg/reportdesk"
	"reportdesk/pkg/reportparse"
)

const (
	outputHuman = "human"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputHuman, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want human, json or yaml)", format)
	}
}

func applyColorMode(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

// render writes v as JSON or YAML, or calls human for the default format.
// YAML keys follow the JSON field names.
func render(w io.Writer, format string, v any, human func(io.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		human(w)
		return nil
	}
}

func printCreditReport(w io.Writer, r reportdesk.CreditReportResult) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Bold)

	fmt.Fprintln(w)
	title.Fprintln(w, "📄 Credit Report")
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Estimated Credit Score:"), orDash(r.EstimatedScore))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Score Required:"), orDash(r.RequiredScore))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Risk Level:"), withMarker(riskColor(r.RiskLevel).Sprint(orDash(r.RiskLevel)), r.RiskEmoji))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Loan Decision:"), withMarker(decisionColor(r.LoanDecision).Sprint(orDash(r.LoanDecision)), r.DecisionEmoji))

	printList(w, label, "Key Points", r.KeyPoints)
	printList(w, label, "Reasons", r.Reasons)
	if r.Note != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", label.Sprint("Note:"), color.HiBlackString(r.Note))
	}
}

func printList(w io.Writer, label *color.Color, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	label.Fprintln(w, heading)
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func printShortened(w, errOut io.Writer, report reportparse.ShortenedReport) {
	fmt.Fprintln(w, report.Text)
	if report.UsedFallback {
		color.New(color.FgYellow).Fprintln(errOut, "! no numbered entries found; showing truncated text")
	}
}

func printCreditHistory(w io.Writer, records []reportdesk.CreditReportRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, color.HiBlackString("No credit reports saved yet"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tAPPLICANT\tSCORE\tRISK\tDECISION")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.CreatedAt, rec.Applicant.Name,
			orDash(rec.Report.EstimatedScore),
			withMarker(orDash(rec.Report.RiskLevel), rec.Report.RiskEmoji),
			withMarker(orDash(rec.Report.LoanDecision), rec.Report.DecisionEmoji),
		)
	}
	_ = tw.Flush()
}

func printInsightHistory(w io.Writer, records []reportdesk.InsightRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, color.HiBlackString("No insights saved yet"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLOCATION\tSECTOR\tCOMPANIES")
	for _, rec := range records {
		companies := "(truncated)"
		if !rec.UsedFallback {
			companies = fmt.Sprint(len(rec.Entries))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", rec.ID, rec.CreatedAt, rec.Location, rec.Sector, companies)
	}
	_ = tw.Flush()
}

func printSuccess(w io.Writer, msg string) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", msg)
}

func printError(w io.Writer, msg string) {
	color.New(color.FgRed).Fprintf(w, "✗ %s\n", msg)
}

func riskColor(level string) *color.Color {
	switch strings.ToLower(level) {
	case "low":
		return color.New(color.FgGreen, color.Bold)
	case "medium":
		return color.New(color.FgYellow, color.Bold)
	case "high":
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func decisionColor(decision string) *color.Color {
	switch strings.ToLower(decision) {
	case "approved":
		return color.New(color.FgGreen, color.Bold)
	case "rejected":
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func withMarker(value, marker string) string {
	if marker == "" {
		return value
	}
	return value + " " + marker
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
