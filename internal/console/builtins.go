package console

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func (c *Console) registerBuiltins() {
	c.Register("help", "List commands and variables.", c.help)
	c.Register("echo", "Print a message.", c.echo)
	c.Register("set", "Define a %key% substitution.", c.set, NoEvaluate())
	c.Register("exec", "Run a command file.", c.exec, Logged())
	c.Register("set_task", "Run a command after a delay in simulated seconds.", c.setTask, NoEvaluate())
	c.Register("exit", "Close the console.", c.exit)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows with the console's table style.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func (c *Console) help(e Event) error {
	type entry struct{ name, kind, data, desc string }
	var entries []entry
	for _, cmd := range c.commands {
		entries = append(entries, entry{cmd.name, "command", "", cmd.description})
	}
	for _, v := range c.vars.All() {
		kind := "variable"
		if v.ReadOnly() {
			kind = "variable (ro)"
		}
		entries = append(entries, entry{v.Name, kind, v.Kind.String(), v.Description})
	}
	sortEntries(entries, func(x entry) string { return x.name })

	rows := make([][]string, 0, len(entries))
	for _, x := range entries {
		rows = append(rows, []string{x.name, x.kind, x.data, x.desc})
	}
	e.Printf("%s\n", Table([]string{"Name", "Kind", "Type", "Description"}, rows))
	return nil
}

func (c *Console) echo(e Event) error {
	if len(e.Args) > 0 {
		fmt.Fprintln(c.stdout, strings.Join(e.Args, " "))
	}
	return nil
}

func (c *Console) set(e Event) error {
	if len(e.Args) != 2 {
		return fmt.Errorf("%w: set <key> <value>", ErrUsage)
	}
	key := e.Args[0]
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q: only letters, digits and '_' are allowed", key)
	}
	value := c.Evaluate(e.Args[1])
	c.Define(key, value)
	e.Printf("%s = %q\n", key, value)
	return nil
}

// CommandFile returns the path exec reads for name.
func CommandFile(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
}

func (c *Console) exec(e Event) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%w: exec <file> [optional]", ErrUsage)
	}
	optional := len(e.Args) > 1 && e.Args[1] == "optional"
	path := CommandFile(e.Args[0])

	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open command file %q: %w", path, err)
	}
	defer f.Close()

	return c.Run(f)
}

// Run processes every line of r. A failing line is reported and the
// following lines still run. Output is discarded unless debug is set.
func (c *Console) Run(r io.Reader) error {
	prev := c.out
	if c.debug() == 0 {
		c.out = io.Discard
	}
	defer func() { c.out = prev }()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if err := c.Process(line); err != nil {
			c.Printf("Error: %q (%v)\n", line, err)
			c.logger.Error("command file line failed", "line", line, "error", err)
		}
	}
	return sc.Err()
}

func (c *Console) setTask(e Event) error {
	if len(e.Args) < 2 {
		return fmt.Errorf("%w: set_task <delay> <command>", ErrUsage)
	}
	delay, err := strconv.ParseFloat(e.Args[0], 64)
	if err != nil || !(delay > 0) {
		return fmt.Errorf("invalid delay %q", e.Args[0])
	}
	c.Schedule(delay, strings.Join(e.Args[1:], " "))
	return nil
}

func (c *Console) exit(Event) error {
	c.open = false
	return nil
}

func sortEntries[E any](entries []E, key func(E) string) {
	slices.SortFunc(entries, func(a, b E) int {
		return cmp.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	})
}
