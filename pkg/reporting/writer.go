package reporting

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules"

	"github.com/sirupsen/logrus"
)

// ReportWriter persists one report file per tool under Dir.
type ReportWriter struct {
	Dir string
	log logrus.FieldLogger
}

func NewReportWriter(dir string, log logrus.FieldLogger) *ReportWriter {
	return &ReportWriter{Dir: dir, log: log}
}

// Path returns where the report for tool lives.
func (w *ReportWriter) Path(tool string) string {
	return filepath.Join(w.Dir, modules.ReportFileName(tool))
}

// Write replaces the tool's report with output. A nil output means the tool
// produced nothing usable: nothing is written and a report left over from an
// earlier run is removed, so it cannot leak into this run's aggregate.
func (w *ReportWriter) Write(tool string, output *string) (string, error) {
	path := w.Path(tool)
	log := w.log.WithFields(logrus.Fields{"tool": tool, "path": path})

	if output == nil {
		log.Warnf("No output from %s, report not generated", tool)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", &core.WriteError{Tool: tool, Path: path, Err: err}
		} else if err == nil {
			log.Info("Removed stale report from a previous run")
		}
		return "", nil
	}

	text := toText(*output)
	if text != *output {
		log.Warn("Output contained bytes that are not UTF-8 text, replaced them")
	}

	log.Debugf("Generating report for %s", tool)
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return "", &core.WriteError{Tool: tool, Path: path, Err: err}
	}
	log.Infof("%s report generated", tool)
	return path, nil
}

// toText makes output acceptable to the aggregator: invalid UTF-8 sequences
// become U+FFFD and NUL bytes are dropped.
func toText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}

// writeFileAtomic writes to a temp file next to path and renames it over the
// target, so a reader never sees a half written report.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
