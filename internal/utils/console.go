package utils

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var toolPalette = []color.Attribute{
	color.FgCyan,
	color.FgMagenta,
	color.FgBlue,
	color.FgGreen,
	color.FgYellow,
}

// Console prints live tool output, one line at a time, tagged with the tool
// that produced it. It is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	colored bool
	tags    map[string]*color.Color
}

func NewConsole(out io.Writer, colored bool) *Console {
	return &Console{
		out:     out,
		colored: colored,
		tags:    make(map[string]*color.Color),
	}
}

// Line writes one line of tool output.
func (c *Console) Line(tool, line string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := c.tagFor(tool)
	fmt.Fprintf(c.out, "%s %s\n", tag.Sprintf("[%s]", strings.ToLower(tool)), line)
}

func (c *Console) tagFor(tool string) *color.Color {
	key := strings.ToLower(tool)
	if tag, ok := c.tags[key]; ok {
		return tag
	}
	tag := color.New(toolPalette[len(c.tags)%len(toolPalette)], color.Bold)
	if c.colored {
		tag.EnableColor()
	} else {
		tag.DisableColor()
	}
	c.tags[key] = tag
	return tag
}

// Status colors used for end-of-run summaries.
type Palette struct {
	OK    *color.Color
	Warn  *color.Color
	Fail  *color.Color
	Title *color.Color
}

func NewPalette(colored bool) Palette {
	p := Palette{
		OK:    color.New(color.FgGreen),
		Warn:  color.New(color.FgYellow),
		Fail:  color.New(color.FgRed, color.Bold),
		Title: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.OK, p.Warn, p.Fail, p.Title} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
