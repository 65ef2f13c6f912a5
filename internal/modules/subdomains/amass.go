package subdomains

import (
	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules/common"
)

// AmassRunner enumerates subdomains with `amass enum -d <target>`.
type AmassRunner struct{}

func (a *AmassRunner) Name() string {
	return "Amass"
}

func (a *AmassRunner) Binary() string {
	return "amass"
}

func (a *AmassRunner) Command(target core.Target, opts core.ToolOptions) (core.ToolInvocation, error) {
	return common.Build(a.Name(), opts, a.Binary(), "enum", "-d", target.String())
}

func (a *AmassRunner) Parse(stdout string) (string, error) {
	return common.StripANSI(stdout), nil
}
