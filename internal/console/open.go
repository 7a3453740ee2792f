package console

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("11")).
	Foreground(lipgloss.Color("11")).
	Width(60).
	Align(lipgloss.Center)

// Open runs an interactive session on in. The clock stays paused until
// the operator types exit or in is exhausted.
func (c *Console) Open(in io.Reader) {
	if c.open {
		return
	}
	c.open = true
	c.clock.Pause()
	defer c.clock.Resume()

	c.Printf("%s\n", bannerStyle.Render("Console enabled"))

	sc := bufio.NewScanner(in)
	for c.open {
		c.Printf("> ")
		if !sc.Scan() {
			c.open = false
			break
		}
		line := sc.Text()
		if strings.TrimSpace(line) != "" {
			c.history = append(c.history, line)
		}
		if err := c.Process(line); err != nil {
			c.Printf("Error: %v\n", err)
			c.logger.Error("command failed", "line", line, "error", err)
		}
	}

	c.Printf("%s\n", bannerStyle.Render("Console disabled"))
}

// IsOpen reports whether an interactive session is running.
func (c *Console) IsOpen() bool {
	return c.open
}

// History returns the lines typed in interactive sessions.
func (c *Console) History() []string {
	return append([]string(nil), c.history...)
}
