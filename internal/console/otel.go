package console

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/felipedec/airport/internal/console"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
