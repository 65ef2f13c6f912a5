package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules"
	"github.com/dookofcrds/PenFramework/internal/runner"
	"github.com/dookofcrds/PenFramework/internal/utils"
	"github.com/dookofcrds/PenFramework/pkg/reporting"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultParallel = 3

// ProcessRunner executes one command vector for a tool.
type ProcessRunner interface {
	Run(ctx context.Context, tool string, argv []string) (*core.RunOutput, error)
}

// Uploader delivers the aggregated document.
type Uploader interface {
	Upload(ctx context.Context, document string) error
}

type Options struct {
	OutputDir    string
	EnableUpload bool
	// Color tags live tool output with colors.
	Color bool
	// StrictStderr fails a tool that exits 0 but writes to stderr.
	StrictStderr bool
	// Parallel is the number of tools running at once. 1 runs them one after
	// another in registry order.
	Parallel int
	Tools    map[string]core.ToolOptions
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(config *core.Config) Options {
	return Options{
		OutputDir:    config.OutputDir,
		EnableUpload: config.Upload.Enabled,
		Color:        config.Color,
		StrictStderr: config.StrictStderr,
		Parallel:     config.Parallel,
		Tools:        config.Tools,
	}
}

// NewRunner builds the process runner these options describe. Live output is
// written to out, one tagged line per tool line.
func (o Options) NewRunner(log logrus.FieldLogger, out io.Writer) *runner.Runner {
	return runner.New(log, utils.NewConsole(out, o.Color), runner.Options{StrictStderr: o.StrictStderr})
}

type Orchestrator struct {
	opts       Options
	runner     ProcessRunner
	uploader   Uploader
	writer     *reporting.ReportWriter
	aggregator *reporting.Aggregator
	log        logrus.FieldLogger
}

// NewOrchestrator wires a run. uploader may be nil when upload is disabled.
func NewOrchestrator(opts Options, runner ProcessRunner, uploader Uploader, log logrus.FieldLogger) *Orchestrator {
	if opts.Parallel < 1 {
		opts.Parallel = DefaultParallel
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "results"
	}
	return &Orchestrator{
		opts:       opts,
		runner:     runner,
		uploader:   uploader,
		writer:     reporting.NewReportWriter(opts.OutputDir, log),
		aggregator: reporting.NewAggregator(modules.ReportOrder()),
		log:        log,
	}
}

// run carries the mutable state of one Run call.
type run struct {
	mu      sync.Mutex
	results *core.RunResults
	log     logrus.FieldLogger
}

func (r *run) enter(state core.State, tool string) {
	r.mu.Lock()
	r.results.Transitions = append(r.results.Transitions, core.Transition{State: state, Tool: tool, At: time.Now()})
	r.results.Final = state
	r.mu.Unlock()

	log := r.log.WithField("state", state.String())
	if tool != "" {
		log = log.WithField("tool", tool)
	}
	log.Debug("State transition")
}

func (r *run) fail(err error) (*core.RunResults, error) {
	r.enter(core.StateFailed, "")
	r.results.EndTime = time.Now()
	r.log.WithError(err).Error("Run failed")
	return r.results, err
}

// Run scans target with the named tools, writes one report per tool,
// aggregates the report directory and uploads the result. The returned
// RunResults is never nil. A non-nil error means the run ended in Failed;
// individual tool failures alone never cause that.
func (o *Orchestrator) Run(ctx context.Context, target core.Target, toolNames []string) (*core.RunResults, error) {
	results := &core.RunResults{
		RunID:     uuid.NewString(),
		Target:    target,
		StartTime: time.Now(),
		Upload:    core.UploadNotRun,
		Final:     core.StateIdle,
	}
	r := &run{
		results: results,
		log:     o.log.WithFields(logrus.Fields{"run_id": results.RunID, "target": target.String()}),
	}
	r.enter(core.StateIdle, "")

	r.enter(core.StateSelecting, "")
	selected, err := modules.Select(toolNames)
	if err != nil {
		return r.fail(&core.FatalError{Stage: "select tools", Err: err})
	}
	if o.opts.EnableUpload && o.uploader == nil {
		return r.fail(&core.FatalError{Stage: "upload", Err: core.ErrUploadNotConfigured})
	}
	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return r.fail(&core.FatalError{Stage: "create output directory", Err: err})
	}

	r.log.Infof("Starting scan with %d tools: %s", len(selected), strings.Join(names(selected), ", "))

	results.Tools = make([]core.ToolResult, len(selected))
	var g errgroup.Group
	g.SetLimit(o.opts.Parallel)
	for i, m := range selected {
		i, m := i, m
		g.Go(func() error {
			start := time.Now()
			res := o.runTool(ctx, r, m, target)
			res.Duration = time.Since(start)
			results.Tools[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return r.fail(&core.FatalError{Stage: "run tools", Err: err})
	}

	r.enter(core.StateAggregating, "")
	document, err := o.aggregator.Aggregate(o.opts.OutputDir)
	if err != nil {
		return r.fail(err)
	}
	results.Document = document
	r.log.WithField("bytes", len(document)).Info("Aggregated report directory")

	if !o.opts.EnableUpload {
		results.Upload = core.UploadSkipped
		r.log.Info("Upload disabled, skipping")
	} else {
		r.enter(core.StateUploading, "")
		if err := o.uploader.Upload(ctx, document); err != nil {
			results.Upload = core.UploadFailed
			results.UploadError = err.Error()
			return r.fail(err)
		}
		results.Upload = core.UploadSent
	}

	r.enter(core.StateDone, "")
	results.EndTime = time.Now()
	r.log.Infof("Scan completed in %v", results.EndTime.Sub(results.StartTime).Round(time.Millisecond))
	return results, nil
}

// runTool executes, parses and persists one tool. Failures are recorded in
// the result and logged, never returned.
func (o *Orchestrator) runTool(ctx context.Context, r *run, m core.Module, target core.Target) core.ToolResult {
	name := m.Name()
	log := r.log.WithField("tool", name)
	result := core.ToolResult{Tool: name}

	r.enter(core.StateRunning, name)

	if err := ctx.Err(); err != nil {
		return failed(log, result, &core.ExecutionError{Tool: name, Err: err})
	}

	inv, err := m.Command(target, o.toolOptions(name))
	if err != nil {
		return o.finish(log, result, nil, &core.LaunchError{Tool: name, Err: err})
	}

	if inv.CustomConfig != "" {
		log = log.WithField("custom_config", inv.CustomConfig)
	}
	log.Infof("Running %s", name)
	out, err := o.runner.Run(ctx, inv.Tool, inv.Argv)
	if out != nil {
		result.ExitCode = out.ExitCode
		result.Stderr = out.Stderr
	}
	if err != nil {
		return o.finish(log, result, nil, err)
	}

	report, err := m.Parse(out.Stdout)
	if err != nil {
		return o.finish(log, result, nil, fmt.Errorf("%s: parse output: %w", name, err))
	}
	result.Output = report
	return o.finish(log, result, &report, nil)
}

// finish writes the report (or clears a stale one when output is nil) and
// completes the result.
func (o *Orchestrator) finish(log logrus.FieldLogger, result core.ToolResult, output *string, runErr error) core.ToolResult {
	path, err := o.writer.Write(result.Tool, output)
	if runErr == nil {
		runErr = err
	} else if err != nil {
		log.WithError(err).Warn("Could not clear previous report")
	}
	if runErr != nil {
		return failed(log, result, runErr)
	}

	result.Success = true
	result.ReportPath = path
	log.WithField("path", path).Infof("%s finished", result.Tool)
	return result
}

func failed(log logrus.FieldLogger, result core.ToolResult, err error) core.ToolResult {
	result.Success = false
	result.Err = err
	result.Error = err.Error()

	log = log.WithField("exit_code", result.ExitCode)
	var launchErr *core.LaunchError
	if errors.As(err, &launchErr) {
		log.WithError(err).Errorf("%s could not be started", result.Tool)
	} else {
		log.WithError(err).Errorf("%s failed", result.Tool)
	}
	return result
}

func (o *Orchestrator) toolOptions(name string) core.ToolOptions {
	return o.opts.Tools[strings.ToLower(name)]
}

func names(ms []core.Module) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name()
	}
	return out
}
