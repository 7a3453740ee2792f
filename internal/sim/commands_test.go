package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/console"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/storage/memory"
	"github.com/felipedec/airport/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCreateAircraft(t *testing.T) {
	h := newHarness(t, Dependencies{})

	assert.Equal(t, "0001\n", h.run(t, "create_aircraft"))
	assert.Equal(t, "0002\n", h.run(t, "create_aircraft OnGate"))

	a, ok := h.sim.Fleet().FindByTransponder("0002")
	require.True(t, ok)
	assert.Equal(t, aircraft.OnGate, a.State())

	err := h.sim.Console().Process("create_aircraft Cruising")
	assert.ErrorIs(t, err, aircraft.ErrUnknownState)
}

func TestAircraftSpawn(t *testing.T) {
	tests := []struct {
		name  string
		cmd   string
		count int
		state aircraft.State
	}{
		{"arrival", "aircraft_spawn arrival", 1, aircraft.Airborne},
		{"departures", "aircraft_spawn departure 3", 3, aircraft.OnGate},
		{"explicit state", "aircraft_spawn LinedUp 2", 2, aircraft.LinedUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Dependencies{})
			out := h.run(t, tt.cmd)

			assert.Len(t, strings.Fields(out), tt.count)
			for _, a := range h.sim.Fleet().All() {
				assert.Equal(t, tt.state, a.State())
				assert.Positive(t, a.Fuel)
				assert.Positive(t, a.BurnRate)
				assert.NotEmpty(t, a.Origin)
				if tt.state == aircraft.Airborne {
					assert.Positive(t, a.Altitude)
				}
			}
		})
	}
}

func TestAircraftSpawn_Errors(t *testing.T) {
	h := newHarness(t, Dependencies{})
	c := h.sim.Console()

	assert.ErrorIs(t, c.Process("aircraft_spawn"), console.ErrUsage)
	assert.Error(t, c.Process("aircraft_spawn arrival zero"))
	assert.Error(t, c.Process("aircraft_spawn arrival -1"))
	assert.ErrorIs(t, c.Process("aircraft_spawn Nowhere"), aircraft.ErrUnknownState)
	assert.Zero(t, h.sim.Fleet().Len())
}

func TestAircraftClearAndDestroy(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "aircraft_spawn departure 3")

	h.run(t, "aircraft_destroy 0002")
	_, ok := h.sim.Fleet().FindByTransponder("0002")
	assert.False(t, ok)
	assert.Equal(t, 2, h.sim.Fleet().Len())
	assert.ErrorIs(t, h.sim.Console().Process("aircraft_destroy 0002"), aircraft.ErrNotFound)

	assert.Equal(t, "Aircraft destroyed.\n", h.run(t, "aircraft_clear"))
	assert.Zero(t, h.sim.Fleet().Len())
}

func TestAircraftSetState(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "create_aircraft OnGate")

	h.run(t, "aircraft_set_state 0001 taxiwayleaving")

	a, _ := h.sim.Fleet().FindByTransponder("0001")
	assert.Equal(t, aircraft.TaxiwayLeaving, a.State())

	c := h.sim.Console()
	assert.ErrorIs(t, c.Process("aircraft_set_state 0001"), console.ErrUsage)
	assert.ErrorIs(t, c.Process("aircraft_set_state 0001 Parked"), aircraft.ErrUnknownState)
	assert.ErrorIs(t, c.Process("aircraft_set_state 0777 OnGate"), aircraft.ErrNotFound)
}

func TestAircraftSetField(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "create_aircraft")

	assert.Equal(t, "\"aircraft.fuel\" = \"250.5\"\n", h.run(t, "aircraft_set_field 0001 Fuel 250.5"))
	assert.Equal(t, "\"aircraft.origin\" = \"SBGR\"\n", h.run(t, "aircraft_set_field 0001 origin SBGR"))

	a, _ := h.sim.Fleet().FindByTransponder("0001")
	assert.Equal(t, 250.5, a.Fuel)

	c := h.sim.Console()
	assert.ErrorIs(t, c.Process("aircraft_set_field 0001 fuel"), console.ErrUsage)
	assert.ErrorIs(t, c.Process("aircraft_set_field 0001 wings 2"), aircraft.ErrUnknownField)
	assert.Error(t, c.Process("aircraft_set_field 0001 fuel -3"))
	assert.Equal(t, 250.5, a.Fuel)
}

func TestPrintAircrafts(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "create_aircraft OnGate")
	h.run(t, "create_aircraft Airborne")
	h.run(t, "create_aircraft TaxiwayArriving")

	tests := []struct {
		name    string
		cmd     string
		want    []string
		notWant []string
	}{
		{"all", "print_aircrafts", []string{"0001", "0002", "0003"}, nil},
		{"one state", "print_aircrafts OnGate", []string{"0001", "OnGate"}, []string{"0002", "0003"}},
		{"mask alias", "print_aircrafts taxing", []string{"0003"}, []string{"0001", "0002"}},
		{"list", "print_aircrafts OnGate, Airborne", []string{"0001", "0002"}, []string{"0003"}},
		{"inverted", "print_aircrafts not OnGate", []string{"0002", "0003"}, []string{"0001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.run(t, tt.cmd)
			assert.Contains(t, out, "Priority")
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}

	assert.ErrorIs(t, h.sim.Console().Process("print_aircrafts not"), console.ErrUsage)
	assert.ErrorIs(t, h.sim.Console().Process("print_aircrafts Parked"), aircraft.ErrUnknownState)
}

func TestPrintAircraftFieldsAndStates(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "create_aircraft TakingOff")

	fields := h.run(t, "print_aircraft_fields")
	for _, f := range aircraft.Fields() {
		assert.Contains(t, fields, f.Name)
	}

	states := h.run(t, "print_aircraft_states")
	assert.Contains(t, states, "TaxiwayArriving")
	assert.Contains(t, states, "Exit after 2.00s")
	assert.Contains(t, states, "LinedUp after 2.00s")
}

func TestDumpStates(t *testing.T) {
	h := newHarness(t, Dependencies{})
	h.run(t, "create_aircraft OnGate")

	var doc struct {
		States []aircraft.StateDoc `yaml:"states"`
	}
	printed := h.run(t, "dump_states")
	require.NoError(t, yaml.Unmarshal([]byte(printed), &doc))
	require.Len(t, doc.States, len(aircraft.States()))
	for _, st := range doc.States {
		if st.Name == "OnGate" {
			assert.Equal(t, 1, st.Members)
		}
	}

	path := filepath.Join(t.TempDir(), "states.yaml")
	assert.Contains(t, h.run(t, "dump_states "+path), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, printed, string(data))
}

func TestJournalCommand(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, Dependencies{})
		assert.ErrorIs(t, h.sim.Console().Process("journal"), ErrJournalDisabled)
	})

	t.Run("recent transitions", func(t *testing.T) {
		backend := memory.New()
		require.NoError(t, backend.StartSession(&model.Session{Name: "test"}))
		sess := session.NewContext()
		j := worker.NewJournal(worker.Dependencies{Session: sess}, backend)

		h := newHarness(t, Dependencies{Journal: j, Session: sess})
		h.run(t, "create_aircraft OnGate")
		h.run(t, "aircraft_set_state 0001 LinedUp")

		out := h.run(t, "journal 5")
		assert.Contains(t, out, "0001")
		assert.Contains(t, out, "LinedUp")
		assert.Contains(t, out, "yes")
		assert.Equal(t, uint64(1), sess.SpawnCount())

		assert.Error(t, h.sim.Console().Process("journal none"))
	})
}
