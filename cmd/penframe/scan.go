package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dookofcrds/PenFramework/internal/config"
	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/dradis"
	"github.com/dookofcrds/PenFramework/internal/utils"
	"github.com/dookofcrds/PenFramework/pkg/orchestrator"
	"github.com/dookofcrds/PenFramework/pkg/reporting"

	"github.com/spf13/cobra"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := checkSummaryPath(summaryPath, cfg.OutputDir); err != nil {
		return err
	}

	log := newLogger(cfg)
	if cfgPath != "" {
		log.Debugf("Using config file %s", cfgPath)
	}

	raw := target
	if raw == "" {
		if raw, err = promptTarget(); err != nil {
			return err
		}
	}
	t, err := core.ParseTarget(raw)
	if err != nil {
		return err
	}

	names := tools
	if len(names) == 0 {
		if names, err = promptTools(); err != nil {
			return err
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	opts := orchestrator.OptionsFromConfig(cfg)
	procs := opts.NewRunner(log, os.Stdout)

	var uploader orchestrator.Uploader
	if opts.EnableUpload {
		uploader = dradis.NewClient(cfg.Upload, log)
	}

	log.Infof("Target: %s", t)
	log.Infof("Output directory: %s", cfg.OutputDir)

	results, runErr := orchestrator.NewOrchestrator(opts, procs, uploader, log).Run(ctx, t, names)
	printResults(os.Stdout, results, utils.NewPalette(cfg.Color))

	if summaryPath != "" {
		if err := reporting.NewSummaryGenerator(results).WriteFile(summaryPath, summaryFormat); err != nil {
			log.WithError(err).Error("Failed to write run summary")
		} else {
			log.Infof("Summary saved to: %s", summaryPath)
		}
	}

	return runErr
}

func printResults(w io.Writer, results *core.RunResults, p utils.Palette) {
	fmt.Fprintln(w, p.Title.Sprint("========================================"))
	fmt.Fprintln(w, p.Title.Sprintf("Scan results for: %s", results.Target))
	if !results.EndTime.IsZero() {
		fmt.Fprintf(w, "Duration: %v\n", results.EndTime.Sub(results.StartTime).Round(time.Millisecond))
	}
	fmt.Fprintln(w, p.Title.Sprint("========================================"))

	for _, t := range results.Tools {
		if t.Success {
			fmt.Fprintf(w, "  %s %-7s %s\n", p.OK.Sprint("[ok]  "), t.Tool, t.ReportPath)
			continue
		}
		fmt.Fprintf(w, "  %s %-7s %s\n", p.Fail.Sprint("[fail]"), t.Tool, t.Error)
	}

	switch results.Upload {
	case core.UploadSent:
		fmt.Fprintln(w, p.OK.Sprint("Upload: accepted"))
	case core.UploadFailed:
		fmt.Fprintln(w, p.Fail.Sprintf("Upload: failed: %s", results.UploadError))
	case core.UploadSkipped:
		fmt.Fprintln(w, p.Warn.Sprint("Upload: skipped"))
	}

	state := p.OK
	if results.Final != core.StateDone {
		state = p.Fail
	}
	fmt.Fprintf(w, "State: %s\n", state.Sprint(results.Final))
}
