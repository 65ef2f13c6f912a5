package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dookofcrds/PenFramework/internal/config"
	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile    string
	target        string
	tools         []string
	outputDir     string
	parallel      int
	noUpload      bool
	noColor       bool
	verbose       bool
	strictStderr  bool
	summaryPath   string
	summaryFormat string
)

var rootCmd = &cobra.Command{
	Use:   "penframe",
	Short: "Penetration testing orchestrator",
	Long: `penframe runs Amass, Nmap and Nuclei against a target, writes one report per
tool, aggregates the reports and uploads them to a Dradis project.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScan,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Config file (default ./penframe.yaml)")
	pf.StringVarP(&outputDir, "output-dir", "o", "results", "Report directory")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")

	f := rootCmd.Flags()
	f.StringVarP(&target, "target", "t", "", "Target domain or IP (prompted when empty)")
	f.StringSliceVar(&tools, "tools", nil, "Tools to run: amass,nmap,nuclei (prompted when empty)")
	f.IntVarP(&parallel, "parallel", "p", 3, "Tools running at once")
	f.BoolVar(&noUpload, "no-upload", false, "Do not upload the aggregated report")
	f.BoolVar(&strictStderr, "strict-stderr", true, "Fail a tool that exits 0 but writes to stderr")
	f.StringVar(&summaryPath, "summary", "", "Write a run summary to this file")
	f.StringVar(&summaryFormat, "summary-format", "json", "Summary format (json, md)")

	rootCmd.AddCommand(toolsCmd, aggregateCmd, uploadCmd, configCmd)
}

// flagKeys maps config keys onto the flags that override them.
var flagKeys = map[string]string{
	"output_dir":    "output-dir",
	"parallel":      "parallel",
	"verbose":       "verbose",
	"strict_stderr": "strict-stderr",
}

// loadConfig merges defaults, config file, environment and the flags of cmd.
func loadConfig(cmd *cobra.Command) (*core.Config, string, error) {
	v := config.New(configFile)
	if err := bindFlags(v, cmd); err != nil {
		return nil, "", err
	}
	return config.Load(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.Flags()
	for key, name := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	// Negative switches only override when given.
	if f := flags.Lookup("no-upload"); f != nil && f.Changed && noUpload {
		v.Set("upload.enabled", false)
	}
	if f := flags.Lookup("no-color"); f != nil && f.Changed && noColor {
		v.Set("color", false)
	}
	return nil
}

func newLogger(cfg *core.Config) *logrus.Logger {
	return utils.NewLoggerTo(os.Stderr, cfg.Verbose, cfg.Color)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// checkSummaryPath keeps the summary file out of the report directory, where
// the aggregator would pick it (or a directory holding it) up on the next run.
func checkSummaryPath(path, reportDir string) error {
	if path == "" {
		return nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(reportDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("summary file %s must not be inside the report directory %s", path, reportDir)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail := utils.NewPalette(!noColor).Fail
		fmt.Fprintf(os.Stderr, "%s %v\n", fail.Sprint("Error:"), err)
		os.Exit(1)
	}
}
