package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownTool         = errors.New("unknown tool")
	ErrNoTools             = errors.New("no tools selected")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrPayloadTooLarge     = errors.New("payload exceeds size limit")
	ErrUploadNotConfigured = errors.New("upload is not configured")
)

type TargetError struct {
	Raw    string
	Reason string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Raw, e.Reason)
}

func (e *TargetError) Unwrap() error { return ErrInvalidTarget }

// LaunchError means the tool process never started.
type LaunchError struct {
	Tool string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: launch failed: %v", e.Tool, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExecutionError reports a process that started but did not succeed. ExitCode
// and Stderr are reported separately so a caller can tell a crash from a tool
// that merely wrote warnings.
type ExecutionError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", e.Tool)
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, "%v", e.Err)
	case e.ExitCode != 0:
		fmt.Fprintf(&b, "exited with status %d", e.ExitCode)
	default:
		b.WriteString("wrote to stderr")
	}
	if s := firstLine(e.Stderr); s != "" {
		fmt.Fprintf(&b, " (stderr: %s)", s)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// StderrOnly reports a zero exit status that was failed only because stderr
// was not empty.
func (e *ExecutionError) StderrOnly() bool {
	return e.Err == nil && e.ExitCode == 0 && strings.TrimSpace(e.Stderr) != ""
}

type WriteError struct {
	Tool string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write report %s: %v", e.Tool, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// AggregationError names the directory entry that could not be read as text.
type AggregationError struct {
	Entry string
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %v", e.Entry, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// UploadError covers transport failures that are neither a timeout nor a
// response from the server.
type UploadError struct {
	Endpoint string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s: %v", e.Endpoint, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type UploadTimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Err      error
}

func (e *UploadTimeoutError) Error() string {
	return fmt.Sprintf("upload to %s timed out after %s", e.Endpoint, e.Timeout)
}

func (e *UploadTimeoutError) Unwrap() error { return e.Err }

// UploadRejectedError is any response other than 201 Created.
type UploadRejectedError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UploadRejectedError) Error() string {
	msg := fmt.Sprintf("upload to %s rejected with status %d", e.Endpoint, e.StatusCode)
	if s := firstLine(e.Body); s != "" {
		msg += ": " + s
	}
	return msg
}

// FatalError stops the whole run outside of any single tool stage.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
