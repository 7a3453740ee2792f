package status

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader_String(t *testing.T) {
	h := Header{
		Time: 12.5, RunwayBusy: true,
		Gate: 2, GateCapacity: 5,
		Taxiway: 1, TaxiCapacity: 1,
		LinedUp: 0, LineCapacity: 1,
		Airborne: 3,
	}
	assert.Equal(t,
		"Time: 12.50s | Runway: Busy | Gate: 2/5 | Taxiway: 1/1 | Line-up: 0/1 | Airborne: 3",
		h.String())

	h.RunwayBusy = false
	assert.Contains(t, h.String(), "Runway: Free")
}

func TestPrinter_Flush(t *testing.T) {
	board := NewBoard(DefaultLimit)
	var out bytes.Buffer
	interval := 1.0
	p := NewPrinter(board, &out, func() float64 { return interval }, func() Header {
		return Header{GateCapacity: 5}
	})

	assert.False(t, p.Flush(5), "nothing to print")

	board.Report("Aircraft 0001 is lined up, waiting for clearance.")
	board.Alert("Aircraft 0002 is out of fuel and losing altitude.")
	assert.True(t, p.Flush(5))
	assert.Contains(t, out.String(), "Gate: 0/5")
	assert.Contains(t, out.String(), "Aircraft 0001 is lined up")
	assert.Contains(t, out.String(), "Aircraft 0002 is out of fuel")
	assert.Equal(t, 0, board.Pending())

	out.Reset()
	board.Report("again")
	assert.False(t, p.Flush(5.5), "within the interval")
	assert.False(t, p.Flush(6), "interval must be exceeded")
	assert.True(t, p.Flush(6.1))

	interval = 10
	board.Report("later")
	assert.False(t, p.Flush(7))
	assert.Equal(t, 1, board.Pending())
}

func TestBoard_Bounded(t *testing.T) {
	board := NewBoard(2)
	board.Report("a")
	board.Report("b")
	board.Report("c")

	assert.Equal(t, 2, board.Pending())
	assert.Equal(t, uint64(1), board.Dropped())
}
