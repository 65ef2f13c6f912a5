package core

import (
	"strings"
	"time"
)

type Config struct {
	OutputDir    string                 `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Parallel     int                    `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
	Verbose      bool                   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Color        bool                   `mapstructure:"color" yaml:"color" json:"color"`
	StrictStderr bool                   `mapstructure:"strict_stderr" yaml:"strict_stderr" json:"strict_stderr"`
	Upload       UploadConfig           `mapstructure:"upload" yaml:"upload" json:"upload"`
	Tools        map[string]ToolOptions `mapstructure:"tools" yaml:"tools" json:"tools"`
}

type UploadConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	URL             string        `mapstructure:"url" yaml:"url" json:"url"`
	ProjectID       string        `mapstructure:"project_id" yaml:"project_id" json:"project_id"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	MaxPayloadBytes int64         `mapstructure:"max_payload_bytes" yaml:"max_payload_bytes" json:"max_payload_bytes"`
}

// ToolOptions customises one tool invocation. Args is the custom-config
// string appended to the tool's fixed arguments.
type ToolOptions struct {
	Binary string `mapstructure:"binary" yaml:"binary" json:"binary"`
	Args   string `mapstructure:"args" yaml:"args" json:"args"`
}

// ToolOptionsFor returns the options configured for a tool, keyed by the
// lowercase tool name.
func (c *Config) ToolOptionsFor(name string) ToolOptions {
	if c == nil || c.Tools == nil {
		return ToolOptions{}
	}
	return c.Tools[strings.ToLower(name)]
}

// Module is one external scanner. Implementations form a closed set that the
// orchestrator iterates without knowing which tool it is driving.
type Module interface {
	// Name is the display name, e.g. "Nmap". The report file name is
	// derived from it.
	Name() string
	// Binary is the default executable looked up on PATH.
	Binary() string
	// Command builds the invocation for a target.
	Command(target Target, opts ToolOptions) (ToolInvocation, error)
	// Parse turns captured stdout into the report text.
	Parse(stdout string) (string, error)
}

// Target is the domain name or IP address under test.
type Target string

func ParseTarget(raw string) (Target, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", &TargetError{Raw: raw, Reason: "empty"}
	}
	if strings.ContainsAny(t, " \t\r\n") {
		return "", &TargetError{Raw: raw, Reason: "contains whitespace"}
	}
	// The target is handed to scanners as a bare argument.
	if strings.HasPrefix(t, "-") {
		return "", &TargetError{Raw: raw, Reason: "must not start with '-'"}
	}
	return Target(t), nil
}

func (t Target) String() string { return string(t) }

// ToolInvocation is one command to run. CustomConfig is the raw args string
// whose tokens end Argv.
type ToolInvocation struct {
	Tool         string
	Argv         []string
	CustomConfig string
}

// RunOutput is what the process runner observed. Stderr and ExitCode are
// independent facts; policy decides which of them count as failure.
type RunOutput struct {
	Tool     string        `json:"tool"`
	Argv     []string      `json:"argv"`
	Stdout   string        `json:"-"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

func (o *RunOutput) HasStderr() bool {
	return o != nil && strings.TrimSpace(o.Stderr) != ""
}

type ToolResult struct {
	Tool       string        `json:"tool"`
	Output     string        `json:"-"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Err        error         `json:"-"`
	ExitCode   int           `json:"exit_code"`
	Stderr     string        `json:"stderr,omitempty"`
	ReportPath string        `json:"report_path,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type UploadStatus string

const (
	UploadSkipped UploadStatus = "skipped"
	UploadSent    UploadStatus = "uploaded"
	UploadFailed  UploadStatus = "failed"
	UploadNotRun  UploadStatus = "not_run"
)

type RunResults struct {
	RunID       string       `json:"run_id"`
	Target      Target       `json:"target"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Tools       []ToolResult `json:"tools"`
	Document    string       `json:"-"`
	Upload      UploadStatus `json:"upload"`
	UploadError string       `json:"upload_error,omitempty"`
	Transitions []Transition `json:"transitions"`
	Final       State        `json:"state"`
}

func (r *RunResults) Succeeded() []ToolResult {
	var out []ToolResult
	for _, t := range r.Tools {
		if t.Success {
			out = append(out, t)
		}
	}
	return out
}

func (r *RunResults) Failed() []ToolResult {
	var out []ToolResult
	for _, t := range r.Tools {
		if !t.Success {
			out = append(out, t)
		}
	}
	return out
}
