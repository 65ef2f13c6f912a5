package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"
)

const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// SummaryGenerator renders a run summary: which tools ran, how they ended and
// what happened to the upload. The summary never contains scanner output.
type SummaryGenerator struct {
	results *core.RunResults
}

func NewSummaryGenerator(results *core.RunResults) *SummaryGenerator {
	return &SummaryGenerator{results: results}
}

// WriteFile writes the summary to path in the given format. It must not be
// placed inside the report directory, which the aggregator reads in full.
func (s *SummaryGenerator) WriteFile(path, format string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case FormatJSON, "":
		data, err = s.JSON()
	case FormatMarkdown, "markdown":
		data = []byte(s.Markdown())
	default:
		return fmt.Errorf("unsupported summary format %q", format)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *SummaryGenerator) JSON() ([]byte, error) {
	report := map[string]interface{}{
		"run_id":    s.results.RunID,
		"target":    s.results.Target,
		"timestamp": s.results.EndTime.Format(time.RFC3339),
		"duration":  s.duration().String(),
		"state":     s.results.Final,
		"tools":     s.results.Tools,
		"upload":    s.results.Upload,
		"summary":   s.Items(),
	}
	if s.results.UploadError != "" {
		report["upload_error"] = s.results.UploadError
	}
	return json.MarshalIndent(report, "", "  ")
}

func (s *SummaryGenerator) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Scan Summary\n\n")
	fmt.Fprintf(&sb, "**Target:** %s\n\n", s.results.Target)
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", s.results.RunID)
	fmt.Fprintf(&sb, "**Duration:** %s\n\n", s.duration())
	fmt.Fprintf(&sb, "**Finished:** %s\n\n", s.results.EndTime.Format("2006-01-02 15:04:05"))

	sb.WriteString("## Overview\n\n")
	for _, item := range s.Items() {
		fmt.Fprintf(&sb, "- **%s:** %s\n", item.Metric, item.Value)
	}
	sb.WriteString("\n")

	sb.WriteString("## Tools\n\n")
	sb.WriteString("| Tool | Status | Exit code | Duration | Report |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, t := range s.results.Tools {
		status := "ok"
		if !t.Success {
			status = "failed"
		}
		report := t.ReportPath
		if report == "" {
			report = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %s | %s |\n", t.Tool, status, t.ExitCode, t.Duration.Round(time.Millisecond), report)
	}
	sb.WriteString("\n")

	if failed := s.results.Failed(); len(failed) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, t := range failed {
			fmt.Fprintf(&sb, "- **%s:** %s\n", t.Tool, t.Error)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

type SummaryItem struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

func (s *SummaryGenerator) Items() []SummaryItem {
	upload := string(s.results.Upload)
	if s.results.UploadError != "" {
		upload += " (" + s.results.UploadError + ")"
	}
	return []SummaryItem{
		{"Tools Selected", fmt.Sprintf("%d", len(s.results.Tools))},
		{"Tools Succeeded", fmt.Sprintf("%d", len(s.results.Succeeded()))},
		{"Tools Failed", fmt.Sprintf("%d", len(s.results.Failed()))},
		{"Aggregated Bytes", fmt.Sprintf("%d", len(s.results.Document))},
		{"Upload", upload},
		{"Final State", s.results.Final.String()},
	}
}

func (s *SummaryGenerator) duration() time.Duration {
	if s.results.EndTime.IsZero() {
		return 0
	}
	return s.results.EndTime.Sub(s.results.StartTime).Round(time.Second)
}
