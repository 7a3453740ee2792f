// Package clock advances simulated time and runs actions queued by other
// goroutines at the start of each tick.
package clock

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/felipedec/airport/internal/channel"
)

const (
	MinTimeScale = 0.25
	MaxTimeScale = 10.0

	DefaultInboxSize    = 256
	DefaultPollInterval = 5 * time.Millisecond
)

// Action is a unit of work executed on the simulation goroutine.
type Action func()

// Clock owns simulated time. Tick, Time, Unscaled, Delta and Frame belong to
// the simulation goroutine; Enqueue, Pause, Resume and Quit are safe to call
// from anywhere.
type Clock struct {
	inbox  channel.Channel[Action]
	paused atomic.Bool
	quit   atomic.Bool

	now          func() time.Time
	timeScale    func() float64
	pollInterval time.Duration

	watch stopwatch

	time          float64
	unscaled      float64
	delta         float64
	unscaledDelta float64
	frame         int
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the wall clock, mostly for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// WithTimeScale sets the source of the time scale. It is read every tick.
func WithTimeScale(scale func() float64) Option {
	return func(c *Clock) {
		c.timeScale = scale
	}
}

// WithInboxSize bounds the number of pending actions.
func WithInboxSize(size int) Option {
	return func(c *Clock) {
		c.inbox = channel.New[Action](size)
	}
}

// WithPollInterval sets how often a paused Tick checks for Resume.
func WithPollInterval(d time.Duration) Option {
	return func(c *Clock) {
		c.pollInterval = d
	}
}

// New creates a running clock. Wall time starts counting immediately.
func New(opts ...Option) *Clock {
	c := &Clock{
		now:          time.Now,
		timeScale:    func() float64 { return 1 },
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.inbox == nil {
		c.inbox = channel.New[Action](DefaultInboxSize)
	}
	c.watch.start(c.now())
	return c
}

// Tick runs pending actions, waits out a pause and advances time by the
// wall time elapsed since the previous tick, scaled by the time scale.
// Neither the actions nor the pause count towards the elapsed time.
func (c *Clock) Tick() (delta, unscaled float64) {
	c.watch.stop(c.now())

	c.drain()
	for c.paused.Load() && !c.quit.Load() {
		time.Sleep(c.pollInterval)
	}

	now := c.now()
	c.unscaledDelta = c.watch.lap().Seconds()
	c.watch.start(now)

	c.delta = c.unscaledDelta * ClampTimeScale(c.timeScale())
	c.time += c.delta
	c.unscaled += c.unscaledDelta
	c.frame++

	return c.delta, c.unscaledDelta
}

func (c *Clock) drain() {
	for {
		action, ok := c.inbox.TryReceive()
		if !ok {
			return
		}
		if action != nil {
			action()
		}
	}
}

// Enqueue schedules action for the start of the next tick. Actions are
// dropped while the clock is paused or the inbox is full.
func (c *Clock) Enqueue(action Action) bool {
	if c.paused.Load() {
		return false
	}
	return c.inbox.TrySend(action)
}

// Pending returns the number of queued actions.
func (c *Clock) Pending() int {
	return c.inbox.Len()
}

func (c *Clock) Pause() {
	c.paused.Store(true)
}

func (c *Clock) Resume() {
	c.paused.Store(false)
}

// TogglePause flips the pause state and reports the new one.
func (c *Clock) TogglePause() bool {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (c *Clock) IsPaused() bool {
	return c.paused.Load()
}

// Quit asks the main loop to stop. A paused Tick returns immediately.
func (c *Clock) Quit() {
	c.quit.Store(true)
}

// Running is false once Quit has been called.
func (c *Clock) Running() bool {
	return !c.quit.Load()
}

// Time is the scaled simulated time in seconds.
func (c *Clock) Time() float64 {
	return c.time
}

// Unscaled is the wall time spent simulating, in seconds.
func (c *Clock) Unscaled() float64 {
	return c.unscaled
}

// Delta is the scaled duration of the last tick.
func (c *Clock) Delta() float64 {
	return c.delta
}

// UnscaledDelta is the wall duration of the last tick.
func (c *Clock) UnscaledDelta() float64 {
	return c.unscaledDelta
}

func (c *Clock) Frame() int {
	return c.frame
}

// ClampTimeScale bounds a time scale to [MinTimeScale, MaxTimeScale].
// NaN falls back to real time.
func ClampTimeScale(scale float64) float64 {
	if math.IsNaN(scale) {
		return 1
	}
	return math.Max(MinTimeScale, math.Min(MaxTimeScale, scale))
}
