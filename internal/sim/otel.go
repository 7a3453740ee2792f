package sim

import (
	"context"
	"fmt"

	"github.com/felipedec/airport/internal/aircraft"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/felipedec/airport/internal/sim"

type instruments struct {
	grants     metric.Int64Counter
	crashes    metric.Int64Counter
	departures metric.Int64Counter
	arrivals   metric.Int64Counter
	tick       metric.Float64Histogram
	queues     metric.Int64ObservableGauge
}

func newInstruments(latest func() *Snapshot) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	var (
		ins instruments
		err error
	)

	if ins.grants, err = m.Int64Counter("airport.runway.grants",
		metric.WithDescription("Runway grants by kind")); err != nil {
		return nil, fmt.Errorf("creating grants counter: %w", err)
	}
	if ins.crashes, err = m.Int64Counter("airport.aircraft.crashes"); err != nil {
		return nil, fmt.Errorf("creating crashes counter: %w", err)
	}
	if ins.departures, err = m.Int64Counter("airport.aircraft.departures"); err != nil {
		return nil, fmt.Errorf("creating departures counter: %w", err)
	}
	if ins.arrivals, err = m.Int64Counter("airport.aircraft.arrivals"); err != nil {
		return nil, fmt.Errorf("creating arrivals counter: %w", err)
	}
	if ins.tick, err = m.Float64Histogram("airport.tick.duration",
		metric.WithDescription("Wall time spent simulating one tick"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating tick histogram: %w", err)
	}

	ins.queues, err = m.Int64ObservableGauge("airport.queue.length",
		metric.WithDescription("Aircraft per state"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			snap := latest()
			if snap == nil {
				return nil
			}
			for name, n := range snap.States {
				o.Observe(int64(n), metric.WithAttributes(attribute.String("state", name)))
			}
			return nil
		}))
	if err != nil {
		return nil, fmt.Errorf("creating queue gauge: %w", err)
	}
	return &ins, nil
}

func (ins *instruments) grant(to aircraft.State) {
	kind := "takeoff"
	if to == aircraft.Landing {
		kind = "landing"
	}
	ins.grants.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (ins *instruments) exit(outcome aircraft.Outcome) {
	ctx := context.Background()
	switch outcome {
	case aircraft.Crashed:
		ins.crashes.Add(ctx, 1)
	case aircraft.Departed:
		ins.departures.Add(ctx, 1)
	case aircraft.Arrived:
		ins.arrivals.Add(ctx, 1)
	}
}
