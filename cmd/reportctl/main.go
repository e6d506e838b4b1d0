package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set with -ldflags "-X main.version=..."

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dataDir    string
	envFile    string
	output     string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "reportctl",
		Short: "Generate and shorten credit and investment reports",
		Long: `reportctl parses model-written credit reports, shortens investment
insight text, and runs the same generation flows as the server against the
configured model provider.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyColorMode(opts.noColor)
			return validateOutput(opts.output)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.yaml")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the database and logs")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file with provider API keys")
	flags.StringVarP(&opts.output, "output", "o", "human", "Output format (human, json, yaml)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newParseCmd(opts),
		newShortenCmd(opts),
		newCreditCmd(opts),
		newInsightCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reportctl version %s\n", version)
		},
	}
}
