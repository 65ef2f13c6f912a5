package vulnerabilities

import (
	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules/common"
)

// NucleiRunner runs template based checks with `nuclei <target>`.
type NucleiRunner struct{}

func (n *NucleiRunner) Name() string {
	return "Nuclei"
}

func (n *NucleiRunner) Binary() string {
	return "nuclei"
}

func (n *NucleiRunner) Command(target core.Target, opts core.ToolOptions) (core.ToolInvocation, error) {
	return common.Build(n.Name(), opts, n.Binary(), target.String())
}

// Parse strips the severity colors nuclei prints regardless of the output
// being a terminal.
func (n *NucleiRunner) Parse(stdout string) (string, error) {
	return common.StripANSI(stdout), nil
}
