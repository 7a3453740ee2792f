// Package status collects the narration produced during ticks and prints
// it under a summary header at a bounded rate.
package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felipedec/airport/internal/queue"
)

// Level is the severity of a message.
type Level int

const (
	Info Level = iota
	Alarm
)

// Message is one line of narration.
type Message struct {
	Level Level
	Text  string
}

// DefaultLimit bounds the messages kept between two prints.
const DefaultLimit = 1024

// Board buffers messages until the next print. Report and Alert may be
// called from any goroutine.
type Board struct {
	messages *queue.Queue[Message]
}

// NewBoard creates a board keeping at most limit messages.
func NewBoard(limit int) *Board {
	return &Board{messages: queue.NewBounded[Message](limit)}
}

// Report queues an informational message.
func (b *Board) Report(msg string) {
	b.messages.Push(Message{Level: Info, Text: msg})
}

// Alert queues an alarm.
func (b *Board) Alert(msg string) {
	b.messages.Push(Message{Level: Alarm, Text: msg})
}

// Pending returns the number of queued messages.
func (b *Board) Pending() int {
	return b.messages.Len()
}

// Dropped returns how many messages were discarded for lack of room.
func (b *Board) Dropped() uint64 {
	return b.messages.Dropped()
}

// Header summarises the airport at print time.
type Header struct {
	Time         float64
	RunwayBusy   bool
	Gate         int
	GateCapacity int
	Taxiway      int
	TaxiCapacity int
	LinedUp      int
	LineCapacity int
	Airborne     int
}

func (h Header) String() string {
	runway := "Free"
	if h.RunwayBusy {
		runway = "Busy"
	}
	return fmt.Sprintf("Time: %.2fs | Runway: %s | Gate: %d/%d | Taxiway: %d/%d | Line-up: %d/%d | Airborne: %d",
		h.Time, runway, h.Gate, h.GateCapacity, h.Taxiway, h.TaxiCapacity, h.LinedUp, h.LineCapacity, h.Airborne)
}

var (
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	alarmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Printer writes the board to out.
type Printer struct {
	board    *Board
	out      io.Writer
	interval func() float64
	header   func() Header
	width    int
	last     float64
}

// NewPrinter creates a printer. interval is read on every call to Flush.
func NewPrinter(board *Board, out io.Writer, interval func() float64, header func() Header) *Printer {
	return &Printer{board: board, out: out, interval: interval, header: header, width: 100}
}

// SetOutput changes the destination of later prints.
func (p *Printer) SetOutput(out io.Writer) {
	p.out = out
}

// Flush prints the header and the queued messages when more than the
// interval has passed since the last print and something happened.
// now is unscaled time.
func (p *Printer) Flush(now float64) bool {
	if now-p.last <= p.interval() || p.board.Pending() == 0 {
		return false
	}
	p.last = now

	var sb strings.Builder
	rule := ruleStyle.Render(strings.Repeat("─", p.width))
	sb.WriteString(rule + "\n")
	sb.WriteString(headerStyle.Render(p.header().String()) + "\n")
	sb.WriteString(rule + "\n")
	for _, m := range p.board.messages.GetAndEmpty() {
		if m.Level == Alarm {
			sb.WriteString(alarmStyle.Render(m.Text) + "\n")
			continue
		}
		sb.WriteString(m.Text + "\n")
	}
	io.WriteString(p.out, sb.String())
	return true
}
