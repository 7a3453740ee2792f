package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attrs that change between records, such as the
// simulated time.
type ContextProvider func() []slog.Attr

// ContextHandler appends the provider's attrs to each record.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

// SimAttrs builds the sim_time and frame attrs.
func SimAttrs(simTime func() float64, frame func() uint64) ContextProvider {
	return func() []slog.Attr {
		return []slog.Attr{
			slog.Float64("sim_time", simTime()),
			slog.Uint64("frame", frame()),
		}
	}
}
