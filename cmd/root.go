package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/split"
)

var logLevel string // Log verbosity level

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ntuplesplit",
	Short: "Tools to partition event containers into train/test subsets and propagate the split",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warning", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// mustDir validates that a path exists and is a directory.
func mustDir(path, what string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		logrus.Fatalf("You must define a valid %s path", what)
	}
}

// logSummary reports the run-level outcome counts. Every skip and discard
// stays visible to the operator.
func logSummary(results []split.FileResult) {
	s := split.Summarize(results)
	logrus.Infof("Run summary: %d files, %d written, %d skipped, %d discarded, %d fatal",
		s.Files, s.Written, s.Skipped, s.Discarded, s.Fatal)
	if s.Unmatched > 0 {
		logrus.Warnf("%d records matched neither reference subset and carry no category flags", s.Unmatched)
	}
	for _, r := range results {
		if r.Outcome != split.OutcomeWritten {
			logrus.Warnf("%s: %s (%v)", r.Name, r.Outcome, r.Err)
		}
	}
}
