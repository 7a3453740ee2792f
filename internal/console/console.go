// Package console runs commands typed by the operator or read from command
// files. Commands and runtime variables share one case-insensitive
// namespace.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/felipedec/airport/internal/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Event is one parsed command line.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
	// Out receives the command's output.
	Out io.Writer
}

// Printf writes formatted output for the operator.
func (e Event) Printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// HandlerFunc runs a command.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Clock is the part of the simulation clock the console drives.
type Clock interface {
	Time() float64
	Pause()
	Resume()
}

// Option configures command registration.
type Option func(*options)

type options struct {
	raw    bool
	logged bool
}

// NoEvaluate passes arguments without %key% substitution.
func NoEvaluate() Option {
	return func(o *options) {
		o.raw = true
	}
}

// Logged adds debug logging to the command.
func Logged() Option {
	return func(o *options) {
		o.logged = true
	}
}

type command struct {
	name        string
	description string
	handler     HandlerFunc
	raw         bool
}

// Console is the command interpreter. It is used from the simulation
// goroutine only.
type Console struct {
	vars     *config.Tunables
	clock    Clock
	logger   Logger
	commands map[string]*command
	keys     map[string]string
	tasks    []task
	history  []string
	open     bool
	debug    func() int

	stdout io.Writer
	out    io.Writer

	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a console writing to out. Variables in vars are reachable
// by name.
func New(out io.Writer, vars *config.Tunables, clock Clock, logger Logger) (*Console, error) {
	c := &Console{
		vars:     vars,
		clock:    clock,
		logger:   logger,
		commands: make(map[string]*command),
		keys:     make(map[string]string),
		stdout:   out,
		out:      out,
		debug:    func() int { return 0 },
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if v, ok := vars.Lookup("debug"); ok {
		c.debug = v.Int
	}

	m := meter()
	var err error
	c.processed, err = m.Int64Counter(
		"console.commands.processed",
		metric.WithDescription("Total console commands processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	c.failed, err = m.Int64Counter(
		"console.commands.failed",
		metric.WithDescription("Total console commands that returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	if home, err := os.UserHomeDir(); err == nil {
		c.Define("desktop", home)
	}
	if cwd, err := os.Getwd(); err == nil {
		c.Define("cwd", cwd)
	}

	c.registerBuiltins()
	return c, nil
}

// Register adds a command. It panics when the name is taken by a
// variable, as registration happens once at startup.
func (c *Console) Register(name, description string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if _, ok := c.vars.Lookup(name); ok {
		panic(fmt.Sprintf("console: %q is already a variable", name))
	}

	handler := h
	if o.logged {
		handler = c.withLogging(name, handler)
	}
	c.commands[strings.ToLower(name)] = &command{
		name:        name,
		description: description,
		handler:     handler,
		raw:         o.raw,
	}
}

// HasCommand reports whether name is a registered command.
func (c *Console) HasCommand(name string) bool {
	_, ok := c.commands[strings.ToLower(name)]
	return ok
}

// Define sets the value substituted for %key%.
func (c *Console) Define(key, value string) {
	c.keys[strings.ToLower(key)] = value
}

// Printf writes to the current output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// SetOutput redirects all later output.
func (c *Console) SetOutput(out io.Writer) {
	c.stdout = out
	c.out = out
}

// Process runs one command line. Everything after an unquoted '#' is
// ignored.
func (c *Console) Process(line string) error {
	line = strings.TrimLeft(stripComment(line), " \t")

	n := 0
	for n < len(line) && isNameByte(line[n]) {
		n++
	}
	if n == 0 {
		return nil
	}
	name, rest := line[:n], line[n:]

	if v, ok := c.vars.Lookup(name); ok {
		args := tokenize(rest)
		if len(args) == 0 {
			c.Printf("%q = %q\n", v.Name, v.String())
			return nil
		}
		return v.Set(c.evaluateAll(args))
	}

	cmd, ok := c.commands[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	args := tokenize(rest)
	if !cmd.raw {
		args = c.evaluateAll(args)
	}

	attrs := metric.WithAttributes(attribute.String("command", cmd.name))
	err := cmd.handler(Event{Command: cmd.name, Args: args, Timestamp: time.Now(), Out: c.out})
	c.processed.Add(context.Background(), 1, attrs)
	if err != nil {
		c.failed.Add(context.Background(), 1, attrs)
	}
	return err
}

func (c *Console) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		c.logger.Debug("running command", "command", name, "args", len(e.Args))

		err := h(e)

		if err != nil {
			c.logger.Error("command failed", "command", name, "duration", time.Since(start), "error", err)
		} else {
			c.logger.Debug("command complete", "command", name, "duration", time.Since(start))
		}
		return err
	}
}

func isNameByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// stripComment cuts line at the first '#' outside double quotes.
func stripComment(line string) string {
	quoted := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '"':
			i++
		case line[i] == '"':
			quoted = !quoted
		case line[i] == '#' && !quoted:
			return line[:i]
		}
	}
	return line
}

// tokenize splits on blanks. Double quotes group words and \" is a
// literal quote.
func tokenize(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			out = append(out, cur.String())
			cur.Reset()
			pending = false
		}
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && s[i+1] == '"':
			cur.WriteByte('"')
			pending = true
			i++
		case ch == '"':
			quoted = !quoted
			pending = true
		case (ch == ' ' || ch == '\t') && !quoted:
			flush()
		default:
			cur.WriteByte(ch)
			pending = true
		}
	}
	flush()
	return out
}

var definition = regexp.MustCompile(`%((cvar:)?([A-Za-z0-9_]+))%`)

// Evaluate replaces %key% with defined keys and %cvar:name% with the
// value of a variable. Unknown references are kept as written.
func (c *Console) Evaluate(text string) string {
	return definition.ReplaceAllStringFunc(text, func(match string) string {
		sub := definition.FindStringSubmatch(match)
		key := sub[3]
		if sub[2] != "" {
			if v, ok := c.vars.Lookup(key); ok {
				return v.String()
			}
		}
		if value, ok := c.keys[strings.ToLower(key)]; ok {
			return value
		}
		return match
	})
}

func (c *Console) evaluateAll(args []string) []string {
	out := slices.Clone(args)
	for i, a := range out {
		out[i] = c.Evaluate(a)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
