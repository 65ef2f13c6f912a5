package utils

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConsoleLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Line("Nmap", "22/tcp open ssh")
	assert.Equal(t, "[nmap] 22/tcp open ssh\n", buf.String())
}

func TestConsoleConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	var wg sync.WaitGroup
	for _, tool := range []string{"Amass", "Nmap", "Nuclei"} {
		wg.Add(1)
		go func(tool string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Line(tool, "line from "+tool)
			}
		}(tool)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 300)
	for _, l := range lines {
		tag := strings.TrimPrefix(strings.SplitN(l, " ", 2)[0], "[")
		tag = strings.TrimSuffix(tag, "]")
		assert.True(t, strings.EqualFold(l, "["+tag+"] line from "+tag), l)
	}
}

func TestNilConsoleIsSilent(t *testing.T) {
	var c *Console
	assert.NotPanics(t, func() { c.Line("Nmap", "x") })
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, logrus.InfoLevel, NewLoggerTo(&buf, false, false).GetLevel())

	logger := NewLoggerTo(&buf, true, false)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("tool", "Nmap").Debug("Executing")
	assert.Contains(t, buf.String(), "tool=Nmap")
	assert.NotContains(t, buf.String(), "\x1b[")
}
