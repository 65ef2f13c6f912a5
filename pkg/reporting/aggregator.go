package reporting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dookofcrds/PenFramework/internal/core"
)

var (
	errIsDirectory = errors.New("is a directory")
	errNotText     = errors.New("not a text file")
)

// Aggregator concatenates every report in a directory into one document.
type Aggregator struct {
	// Order lists file names that come first, in this order. Other entries
	// follow sorted by name.
	Order []string
}

func NewAggregator(order []string) *Aggregator {
	return &Aggregator{Order: order}
}

// Aggregate joins the contents of all entries of dir with a single newline.
// It fails on the first entry that is not a readable text file and names
// that entry in the error.
func (a *Aggregator) Aggregate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &core.AggregationError{Entry: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if isTempReport(e.Name()) {
			continue
		}
		if e.IsDir() {
			return "", &core.AggregationError{Entry: filepath.Join(dir, e.Name()), Err: errIsDirectory}
		}
		names = append(names, e.Name())
	}
	a.sort(names)

	results := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := readText(path)
		if err != nil {
			return "", &core.AggregationError{Entry: path, Err: err}
		}
		results = append(results, content)
	}

	return strings.Join(results, "\n"), nil
}

func (a *Aggregator) sort(names []string) {
	rank := make(map[string]int, len(a.Order))
	for i, name := range a.Order {
		rank[name] = i
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, iKnown := rank[names[i]]
		rj, jKnown := rank[names[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return names[i] < names[j]
		}
	})
}

func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", errIsDirectory
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", errNotText
	}
	return string(data), nil
}

// isTempReport matches the scratch files ReportWriter renames into place.
func isTempReport(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}
