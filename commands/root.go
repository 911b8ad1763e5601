package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-spend/internal/report"
	"github.com/penwyp/go-claude-spend/internal/util"
)

var (
	// Logging related
	debug bool

	// Record log location
	recordFile string

	// Time filtering
	duration string

	rootCmd = &cobra.Command{
		Use:   "claude-spend [flags]",
		Short: "Claude API spend accounting and reporting",
		Long: `claude-spend observes completion API calls, records per-call token
usage and estimated cost, and analyzes the accumulated records.

The root command prints a per-model summary for the lookback window.

Examples:
  claude-spend                          # Summary for the last 7 days
  claude-spend --duration 12h           # Summary for the last 12 hours
  claude-spend top --limit 5            # Five most expensive contexts
  claude-spend context gmail-digest     # Deep dive into one context
  claude-spend alerts --threshold 0.5   # Calls at or above $0.50
  claude-spend weekly                   # Composite report with anomaly rules
  claude-spend proxy --listen :8080     # Observing forward proxy`,
		RunE: runSummary,
	}
)

const (
	defaultLogFile    = "~/.go-claude-spend/logs/app.log"
	defaultCacheDir   = "~/.go-claude-spend/cache"
	defaultRecordFile = "~/.go-claude-spend/usage.jsonl"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&recordFile, "file", defaultRecordFile,
		"Call record log path")
	rootCmd.PersistentFlags().StringVarP(&duration, "duration", "d", "7d",
		"Lookback window (e.g., 12h, 7d, 2w, 1m, 1d12h)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runSummary(cmd *cobra.Command, args []string) error {
	reporter, err := loadReporter()
	if err != nil {
		return err
	}
	fmt.Print(reporter.Summary())
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// initRuntime sets up logging for every command run.
func initRuntime() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
}

// loadReporter reads the record window and builds a reporter for it.
func loadReporter() (*report.Reporter, error) {
	initRuntime()

	lookback, err := util.ParseLookback(duration)
	if err != nil {
		return nil, fmt.Errorf("invalid --duration value: %w", err)
	}

	records, err := report.Load(expandPath(recordFile), lookback)
	if err != nil {
		return nil, err
	}
	util.LogDebug(fmt.Sprintf("Loaded %d records from %s", len(records), recordFile))
	return report.NewReporter(records), nil
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
