package logging

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console prints user-facing progress lines. Unlike Logger it is meant for
// people, not for log files.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	plain   *color.Color
	heading *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewConsole creates a console writing to w. Colors are disabled when
// noColor is set or when fatih/color decided the terminal cannot show them.
func NewConsole(w io.Writer, noColor bool) *Console {
	c := &Console{
		out:     w,
		plain:   color.New(color.Reset),
		heading: color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, col := range []*color.Color{c.plain, c.heading, c.success, c.warn, c.fail} {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) print(col *color.Color, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = col.Fprintf(c.out, format+"\n", args...)
}

// Printf prints an uncolored line.
func (c *Console) Printf(format string, args ...interface{}) {
	c.print(c.plain, format, args...)
}

// Headingf prints a section heading.
func (c *Console) Headingf(format string, args ...interface{}) {
	c.print(c.heading, format, args...)
}

// Successf prints a completed-item line.
func (c *Console) Successf(format string, args ...interface{}) {
	c.print(c.success, format, args...)
}

// Warnf prints a warning line.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.print(c.warn, format, args...)
}

// Failf prints a failure line.
func (c *Console) Failf(format string, args ...interface{}) {
	c.print(c.fail, format, args...)
}
