package clock

import "time"

// stopwatch accumulates running time between laps.
type stopwatch struct {
	running bool
	since   time.Time
	elapsed time.Duration
}

func (s *stopwatch) start(now time.Time) {
	if s.running {
		return
	}
	s.running = true
	s.since = now
}

func (s *stopwatch) stop(now time.Time) {
	if !s.running {
		return
	}
	if d := now.Sub(s.since); d > 0 {
		s.elapsed += d
	}
	s.running = false
}

// lap returns the accumulated time and resets it. Must be called stopped.
func (s *stopwatch) lap() time.Duration {
	d := s.elapsed
	s.elapsed = 0
	return d
}
