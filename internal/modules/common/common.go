// Package common holds helpers shared by the tool variants.
package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/google/shlex"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// StripANSI removes terminal color and cursor sequences that scanners print
// even when their stdout is a pipe.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// CustomArgs splits a custom-config string into tokens. Blank input yields no
// tokens, never an empty-string argument.
func CustomArgs(opts core.ToolOptions) ([]string, error) {
	if strings.TrimSpace(opts.Args) == "" {
		return nil, nil
	}
	args, err := shlex.Split(opts.Args)
	if err != nil {
		return nil, fmt.Errorf("parse custom arguments %q: %w", opts.Args, err)
	}
	out := args[:0]
	for _, a := range args {
		if a != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

// Binary returns the configured executable or the tool default.
func Binary(opts core.ToolOptions, fallback string) string {
	if b := strings.TrimSpace(opts.Binary); b != "" {
		return b
	}
	return fallback
}

// Build assembles binary + fixed args + custom args into an invocation of
// tool.
func Build(tool string, opts core.ToolOptions, fallback string, fixed ...string) (core.ToolInvocation, error) {
	custom, err := CustomArgs(opts)
	if err != nil {
		return core.ToolInvocation{}, err
	}
	argv := make([]string, 0, 1+len(fixed)+len(custom))
	argv = append(argv, Binary(opts, fallback))
	argv = append(argv, fixed...)
	argv = append(argv, custom...)
	return core.ToolInvocation{Tool: tool, Argv: argv, CustomConfig: opts.Args}, nil
}
