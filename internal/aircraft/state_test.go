package aircraft

import (
	"testing"

	"github.com/felipedec/airport/internal/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	s, err := ParseState(" linedup ")
	require.NoError(t, err)
	assert.Equal(t, LinedUp, s)

	_, err = ParseState("Hovering")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestParseMask(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []State
		wantErr bool
	}{
		{"single", "Landing", []State{Landing}, false},
		{"alias", "Taxing", []State{TaxiwayArriving, TaxiwayLeaving}, false},
		{"mixed", "OnGate, AllAirborneMask", []State{OnGate, Airborne, AirborneOutOfFuel}, false},
		{"duplicates collapse", "Landing,landing", []State{Landing}, false},
		{"empty", " , ", nil, true},
		{"unknown", "Landing,Parked", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask, err := ParseMask(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownState)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, mask.IDs())
		})
	}
}

func TestComplement(t *testing.T) {
	c := Complement(AllAirborneMask)
	assert.False(t, c.Has(Airborne))
	assert.False(t, c.Has(Exit))
	assert.True(t, c.Has(OnGate))
	assert.Equal(t, AllMask.Len()-2, c.Len())
}

func TestExitOutcome(t *testing.T) {
	assert.Equal(t, Departed, ExitOutcome(TakingOff))
	assert.Equal(t, Arrived, ExitOutcome(TaxiwayArriving))
	assert.Equal(t, Crashed, ExitOutcome(AirborneOutOfFuel))
	assert.Equal(t, Removed, ExitOutcome(OnGate))
}

func TestParseTable(t *testing.T) {
	_, err := DefaultTable()
	require.NoError(t, err)

	_, err = ParseTable([]byte("states:\n  - name: Idle\n"))
	assert.ErrorContains(t, err, "missing")

	_, err = ParseTable([]byte("states: [{name: Idle}, {name: Idle}]"))
	assert.ErrorContains(t, err, "declared twice")

	_, err = ParseTable([]byte("states: ["))
	assert.Error(t, err)
}

func TestTransitionOutcome(t *testing.T) {
	assert.Equal(t, Departed, TransitionOutcome(fsm.Transition[State]{From: TakingOff, HasFrom: true, To: Exit}))
	assert.Equal(t, Removed, TransitionOutcome(fsm.Transition[State]{From: TakingOff, HasFrom: true, To: Exit, Silent: true}))
}
