package ports

import (
	"fmt"
	"strings"

	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules/common"

	"github.com/Ullaakut/nmap/v3"
)

// NmapRunner scans ports with `nmap <target>`.
type NmapRunner struct{}

func (n *NmapRunner) Name() string {
	return "Nmap"
}

func (n *NmapRunner) Binary() string {
	return "nmap"
}

func (n *NmapRunner) Command(target core.Target, opts core.ToolOptions) (core.ToolInvocation, error) {
	return common.Build(n.Name(), opts, n.Binary(), target.String())
}

// Parse passes normal nmap output through unchanged. When the custom config
// asked for XML on stdout (-oX -) the XML is condensed into one line per port.
func (n *NmapRunner) Parse(stdout string) (string, error) {
	if !isNmapXML(stdout) {
		return stdout, nil
	}
	return n.parseNmapXML([]byte(stdout))
}

func isNmapXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") && strings.Contains(s, "<nmaprun")
}

func (n *NmapRunner) parseNmapXML(output []byte) (string, error) {
	run := &nmap.Run{}
	if err := nmap.Parse(output, run); err != nil {
		return "", fmt.Errorf("parse nmap xml: %w", err)
	}

	var lines []string
	for _, host := range run.Hosts {
		addr := pickHostAddress(host)
		if addr == "" {
			continue
		}
		if len(host.Ports) == 0 {
			lines = append(lines, addr+" no ports reported")
			continue
		}
		for _, port := range host.Ports {
			line := fmt.Sprintf("%s %d/%s %s %s", addr, port.ID, port.Protocol, port.State.State, serviceLabel(port.Service))
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func serviceLabel(svc nmap.Service) string {
	parts := []string{svc.Name, svc.Product, svc.Version}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func pickHostAddress(h nmap.Host) string {
	for _, a := range h.Addresses {
		if a.AddrType == "ipv4" {
			return a.Addr
		}
	}
	for _, a := range h.Addresses {
		if a.AddrType == "ipv6" {
			return a.Addr
		}
	}
	if len(h.Addresses) > 0 {
		return h.Addresses[0].Addr
	}
	return ""
}
