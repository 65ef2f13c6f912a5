package modules

import (
	"testing"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOrder(t *testing.T) {
	assert.Equal(t, []string{"Amass", "Nmap", "Nuclei"}, Names())
	assert.Equal(t, []string{"amass_report.txt", "nmap_report.txt", "nuclei_report.txt"}, ReportOrder())
}

func TestLookup(t *testing.T) {
	m, err := Lookup(" NMAP ")
	require.NoError(t, err)
	assert.Equal(t, "Nmap", m.Name())

	_, err = Lookup("masscan")
	assert.ErrorIs(t, err, core.ErrUnknownTool)
	assert.Contains(t, err.Error(), "Amass, Nmap, Nuclei")
}

func TestSelect(t *testing.T) {
	selected, err := Select([]string{"nuclei", "Amass", "nuclei", ""})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "Amass", selected[0].Name())
	assert.Equal(t, "Nuclei", selected[1].Name())

	_, err = Select(nil)
	assert.ErrorIs(t, err, core.ErrNoTools)

	_, err = Select([]string{" "})
	assert.ErrorIs(t, err, core.ErrNoTools)

	_, err = Select([]string{"nmap", "zap"})
	assert.ErrorIs(t, err, core.ErrUnknownTool)
}

func TestCommands(t *testing.T) {
	cases := []struct {
		tool string
		opts core.ToolOptions
		want []string
	}{
		{"amass", core.ToolOptions{}, []string{"amass", "enum", "-d", "example.com"}},
		{"amass", core.ToolOptions{Args: "-passive -timeout 10"}, []string{"amass", "enum", "-d", "example.com", "-passive", "-timeout", "10"}},
		{"nmap", core.ToolOptions{}, []string{"nmap", "example.com"}},
		{"nmap", core.ToolOptions{Binary: "/usr/local/bin/nmap", Args: `-p "22,80"`}, []string{"/usr/local/bin/nmap", "example.com", "-p", "22,80"}},
		{"nuclei", core.ToolOptions{Args: "   "}, []string{"nuclei", "example.com"}},
	}
	for _, tc := range cases {
		m, err := Lookup(tc.tool)
		require.NoError(t, err)
		inv, err := m.Command("example.com", tc.opts)
		require.NoError(t, err)
		assert.Equal(t, m.Name(), inv.Tool)
		assert.Equal(t, tc.want, inv.Argv)
		assert.Equal(t, tc.opts.Args, inv.CustomConfig)
	}
}

func TestCommandRejectsUnbalancedQuotes(t *testing.T) {
	m, err := Lookup("nmap")
	require.NoError(t, err)
	_, err = m.Command("example.com", core.ToolOptions{Args: `-p "22`})
	assert.Error(t, err)
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "nmap_report.txt", ReportFileName("Nmap"))
	assert.Equal(t, "amass_report.txt", ReportFileName("AMASS"))
}
