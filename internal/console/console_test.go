package console

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felipedec/airport/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now     float64
	paused  int
	resumed int
}

func (c *fakeClock) Time() float64 { return c.now }
func (c *fakeClock) Pause()        { c.paused++ }
func (c *fakeClock) Resume()       { c.resumed++ }

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer, *fakeClock, *config.Sim) {
	t.Helper()
	t.Cleanup(viper.Reset)

	vars := config.NewTunables()
	sim := config.RegisterSim(vars)
	clk := &fakeClock{}
	var out bytes.Buffer

	c, err := New(&out, vars, clk, nil)
	require.NoError(t, err)
	return c, &out, clk, sim
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  a  b\tc ", []string{"a", "b", "c"}},
		{`"hello world" x`, []string{"hello world", "x"}},
		{`say \"hi\"`, []string{"say", `"hi"`}},
		{`""`, []string{""}},
		{`a"b c"d`, []string{"ab cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.in))
		})
	}
}

func TestProcess_Command(t *testing.T) {
	c, _, _, _ := newTestConsole(t)

	var got Event
	c.Register("Greet", "test", func(e Event) error {
		got = e
		return nil
	})

	require.NoError(t, c.Process(`greet "big world" 2 # trailing comment`))
	assert.Equal(t, "Greet", got.Command)
	assert.Equal(t, []string{"big world", "2"}, got.Args)

	require.NoError(t, c.Process("GREET"))
	assert.Empty(t, got.Args)
}

func TestProcess_IgnoresBlankAndComments(t *testing.T) {
	c, out, _, _ := newTestConsole(t)

	assert.NoError(t, c.Process(""))
	assert.NoError(t, c.Process("   "))
	assert.NoError(t, c.Process("# only a comment"))
	assert.NoError(t, c.Process("!!"))
	assert.Empty(t, out.String())
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"echo a # note", "echo a "},
		{`echo "a#b"`, `echo "a#b"`},
		{`echo "a#b" # note`, `echo "a#b" `},
		{`echo \"a # b`, `echo \"a `},
		{`echo "x \" # y" # z`, `echo "x \" # y" `},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stripComment(tt.in))
		})
	}
}

func TestProcess_KeepsQuotedHash(t *testing.T) {
	c, out, _, _ := newTestConsole(t)

	require.NoError(t, c.Process(`echo "a#b" # comment`))
	assert.Equal(t, "a#b\n", out.String())
}

func TestProcess_UnknownCommand(t *testing.T) {
	c, _, _, _ := newTestConsole(t)
	assert.ErrorIs(t, c.Process("launch_rockets"), ErrUnknownCommand)
}

func TestProcess_Variables(t *testing.T) {
	c, out, _, sim := newTestConsole(t)

	require.NoError(t, c.Process("tw_capacity 3"))
	assert.Equal(t, 3, sim.TaxiCapacity.Int())

	require.NoError(t, c.Process("TW_CAPACITY"))
	assert.Equal(t, "\"tw_capacity\" = \"3\"\n", out.String())

	err := c.Process("tw_capacity lots")
	assert.ErrorIs(t, err, config.ErrInvalidValue)
	assert.Equal(t, 3, sim.TaxiCapacity.Int())

	require.NoError(t, c.Process("timescale 50"))
	assert.Equal(t, 10.0, sim.TimeScale.Float())
}

func TestEvaluate(t *testing.T) {
	c, _, _, _ := newTestConsole(t)
	c.Define("Home", "/tmp/x")

	assert.Equal(t, "/tmp/x/run", c.Evaluate("%home%/run"))
	assert.Equal(t, "cap=1", c.Evaluate("cap=%cvar:tw_capacity%"))
	assert.Equal(t, "%missing%", c.Evaluate("%missing%"))
	assert.Equal(t, "/tmp/x", c.Evaluate("%cvar:home%"))
	assert.Equal(t, "100%", c.Evaluate("100%"))
}

func TestProcess_EvaluatesUnlessRaw(t *testing.T) {
	c, _, _, _ := newTestConsole(t)
	c.Define("who", "tower")

	var cooked, raw []string
	c.Register("cooked", "", func(e Event) error { cooked = e.Args; return nil })
	c.Register("raw", "", func(e Event) error { raw = e.Args; return nil }, NoEvaluate())

	require.NoError(t, c.Process("cooked %who%"))
	require.NoError(t, c.Process("raw %who%"))
	assert.Equal(t, []string{"tower"}, cooked)
	assert.Equal(t, []string{"%who%"}, raw)
}

func TestSet(t *testing.T) {
	c, out, _, _ := newTestConsole(t)

	require.NoError(t, c.Process(`set base "%cvar:tw_capacity%x"`))
	assert.Equal(t, "base = \"1x\"\n", out.String())
	assert.Equal(t, "1x", c.Evaluate("%base%"))

	assert.ErrorIs(t, c.Process("set only"), ErrUsage)
	assert.Error(t, c.Process("set bad-key 1"))
}

func TestRegister_PanicsOnVariableName(t *testing.T) {
	c, _, _, _ := newTestConsole(t)
	assert.Panics(t, func() {
		c.Register("timescale", "", func(Event) error { return nil })
	})
}

func TestExec(t *testing.T) {
	c, out, _, sim := newTestConsole(t)
	dir := t.TempDir()

	script := strings.Join([]string{
		"# setup",
		"tw_capacity 4",
		"bogus_command",
		"rw_line_capacity 2 # inline",
		"echo done",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.txt"), []byte(script), 0o644))

	require.NoError(t, c.Process("exec "+filepath.Join(dir, "setup.cfg")))
	assert.Equal(t, 4, sim.TaxiCapacity.Int())
	assert.Equal(t, 2, sim.LineCapacity.Int())
	// echo bypasses the quiet output, the failing line does not
	assert.Equal(t, "done\n", out.String())
}

func TestExec_DebugShowsOutput(t *testing.T) {
	c, out, _, _ := newTestConsole(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.txt"), []byte("bogus\ntw_capacity\n"), 0o644))

	require.NoError(t, c.Process("debug 1"))
	require.NoError(t, c.Process("exec "+filepath.Join(dir, "s")))
	assert.Contains(t, out.String(), `Error: "bogus"`)
	assert.Contains(t, out.String(), `"tw_capacity" = "1"`)
}

func TestExec_Missing(t *testing.T) {
	c, _, _, _ := newTestConsole(t)
	missing := filepath.Join(t.TempDir(), "nope")

	assert.Error(t, c.Process("exec "+missing))
	assert.NoError(t, c.Process("exec "+missing+" optional"))
	assert.ErrorIs(t, c.Process("exec"), ErrUsage)
}

func TestCommandFile(t *testing.T) {
	assert.Equal(t, "autoexec.txt", CommandFile("autoexec"))
	assert.Equal(t, "autoexec.txt", CommandFile("autoexec.cfg"))
	assert.Equal(t, filepath.Join("a.b", "run.txt"), CommandFile(filepath.Join("a.b", "run")))
}

func TestTasks_OrderedByDueTime(t *testing.T) {
	c, _, clk, _ := newTestConsole(t)

	var ran []string
	c.Register("mark", "", func(e Event) error {
		ran = append(ran, e.Args[0])
		return nil
	})

	clk.now = 10
	require.NoError(t, c.Process("set_task 5 mark late"))
	require.NoError(t, c.Process("set_task 1 mark first"))
	require.NoError(t, c.Process("set_task 1 mark second"))
	require.NoError(t, c.Process("set_task 3 mark middle"))
	assert.Equal(t, 4, c.Pending())

	c.RunDue(10.5)
	assert.Empty(t, ran)

	c.RunDue(13)
	assert.Equal(t, []string{"first", "second", "middle"}, ran)

	c.RunDue(20)
	assert.Equal(t, []string{"first", "second", "middle", "late"}, ran)
	assert.Equal(t, 0, c.Pending())
}

func TestSetTask_RejectsBadDelay(t *testing.T) {
	c, _, _, _ := newTestConsole(t)

	assert.Error(t, c.Process("set_task 0 echo hi"))
	assert.Error(t, c.Process("set_task -1 echo hi"))
	assert.Error(t, c.Process("set_task soon echo hi"))
	assert.ErrorIs(t, c.Process("set_task 1"), ErrUsage)
	assert.Equal(t, 0, c.Pending())
}

func TestOpen(t *testing.T) {
	c, out, clk, sim := newTestConsole(t)

	in := strings.NewReader("tw_capacity 2\n\nnonsense\nexit\ntw_capacity 9\n")
	c.Open(in)

	assert.Equal(t, 1, clk.paused)
	assert.Equal(t, 1, clk.resumed)
	assert.False(t, c.IsOpen())
	assert.Equal(t, 2, sim.TaxiCapacity.Int())
	assert.Equal(t, []string{"tw_capacity 2", "nonsense", "exit"}, c.History())

	text := out.String()
	assert.Contains(t, text, "Console enabled")
	assert.Contains(t, text, "Error: unknown command: nonsense")
	assert.Contains(t, text, "Console disabled")
}

func TestOpen_EOFCloses(t *testing.T) {
	c, _, clk, _ := newTestConsole(t)
	c.Open(strings.NewReader("echo hi"))
	assert.False(t, c.IsOpen())
	assert.Equal(t, 1, clk.resumed)
}

func TestHelp(t *testing.T) {
	c, out, _, _ := newTestConsole(t)
	c.Register("print_aircrafts", "List aircraft.", func(Event) error { return nil })

	require.NoError(t, c.Process("help"))
	text := out.String()
	assert.Contains(t, text, "print_aircrafts")
	assert.Contains(t, text, "List aircraft.")
	assert.Contains(t, text, "timescale")
	assert.Contains(t, text, "float")
}
