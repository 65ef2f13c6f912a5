// Package runner executes one external scanner and captures what it did.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/sirupsen/logrus"
)

// LineSink receives stdout lines as the tool produces them.
type LineSink interface {
	Line(tool, line string)
}

type Options struct {
	// StrictStderr fails a tool that exited 0 but wrote to stderr.
	StrictStderr bool
	// WaitDelay bounds how long Wait blocks on I/O after the process was
	// killed by a cancelled context.
	WaitDelay time.Duration
}

type Runner struct {
	log  logrus.FieldLogger
	sink LineSink
	opts Options
}

func New(log logrus.FieldLogger, sink LineSink, opts Options) *Runner {
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = 5 * time.Second
	}
	return &Runner{log: log, sink: sink, opts: opts}
}

// Run launches argv and blocks until it exits. The RunOutput is returned
// whenever the process started, including alongside an ExecutionError.
func (r *Runner) Run(ctx context.Context, tool string, argv []string) (*core.RunOutput, error) {
	argv = compact(argv)
	if len(argv) == 0 {
		return nil, &core.LaunchError{Tool: tool, Err: errors.New("empty command")}
	}

	log := r.log.WithField("tool", tool)
	log.Debugf("Executing: %s", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = r.opts.WaitDelay

	var stderr bytes.Buffer
	stdout := &lineWriter{tool: tool, sink: r.sink}
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &core.LaunchError{Tool: tool, Err: err}
	}
	waitErr := cmd.Wait()
	stdout.flush()

	out := &core.RunOutput{
		Tool:     tool,
		Argv:     argv,
		Stdout:   strings.Join(stdout.lines, "\n"),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, &core.ExecutionError{Tool: tool, ExitCode: out.ExitCode, Stderr: out.Stderr, Err: ctxErr}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return out, &core.ExecutionError{Tool: tool, ExitCode: out.ExitCode, Stderr: out.Stderr, Err: waitErr}
		}
		return out, &core.ExecutionError{Tool: tool, ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
	if out.HasStderr() {
		if r.opts.StrictStderr {
			return out, &core.ExecutionError{Tool: tool, ExitCode: out.ExitCode, Stderr: out.Stderr}
		}
		log.WithField("stderr", firstLine(out.Stderr)).Warn("Tool exited 0 but wrote to stderr")
	}

	log.WithField("duration", out.Duration.Round(time.Millisecond)).Debug("Tool finished")
	return out, nil
}

// lineWriter splits the process stdout into lines and forwards each complete
// line to the sink as soon as it arrives. os/exec writes to it from a single
// goroutine.
type lineWriter struct {
	tool    string
	sink    LineSink
	partial []byte
	lines   []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(string(bytes.TrimSuffix(w.partial[:i], []byte{'\r'})))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.partial) > 0 {
		w.emit(string(w.partial))
		w.partial = nil
	}
}

func (w *lineWriter) emit(line string) {
	w.lines = append(w.lines, line)
	if w.sink != nil {
		w.sink.Line(w.tool, line)
	}
}

// compact drops empty tokens so that an unset custom config never reaches the
// tool as an empty argument.
func compact(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
