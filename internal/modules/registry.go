// Package modules is the closed set of scanners penframe can drive.
package modules

import (
	"fmt"
	"strings"

	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules/ports"
	"github.com/dookofcrds/PenFramework/internal/modules/subdomains"
	"github.com/dookofcrds/PenFramework/internal/modules/vulnerabilities"
)

// All returns every tool in registry order. This order drives execution and
// the order of reports in the aggregated document.
func All() []core.Module {
	return []core.Module{
		&subdomains.AmassRunner{},
		&ports.NmapRunner{},
		&vulnerabilities.NucleiRunner{},
	}
}

func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name()
	}
	return names
}

func Lookup(name string) (core.Module, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, m := range All() {
		if strings.ToLower(m.Name()) == key {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", core.ErrUnknownTool, name, strings.Join(Names(), ", "))
}

// Select resolves user supplied names. Matching is case-insensitive,
// duplicates are dropped and the result follows registry order.
func Select(names []string) ([]core.Module, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		wanted[strings.ToLower(m.Name())] = true
	}
	if len(wanted) == 0 {
		return nil, core.ErrNoTools
	}

	var selected []core.Module
	for _, m := range All() {
		if wanted[strings.ToLower(m.Name())] {
			selected = append(selected, m)
		}
	}
	return selected, nil
}

// ReportOrder lists report file names in registry order.
func ReportOrder() []string {
	all := All()
	order := make([]string, len(all))
	for i, m := range all {
		order[i] = ReportFileName(m.Name())
	}
	return order
}

// ReportFileName is the deterministic report name for a tool.
func ReportFileName(tool string) string {
	return strings.ToLower(tool) + "_report.txt"
}
