package stream

import (
	"go.uber.org/zap"

	"github.com/llm-council/council-client/pkg/logger"
	"github.com/llm-council/council-client/pkg/metrics"
)

// Handler consumes one routed event.
type Handler func(Event)

// Router dispatches each event to exactly one handler keyed by event type.
// Types with no registered handler fall through to the catch-all, so
// server-added kinds never raise. Dispatch is synchronous and ordered: the
// protocol offers no reordering or deduplication guarantee, and handlers must
// see events exactly as they arrived.
type Router struct {
	handlers map[EventType]Handler
	fallback Handler
	log      *logger.Logger
}

// NewRouter creates a router with a logging catch-all.
func NewRouter(log *logger.Logger) *Router {
	if log == nil {
		log = logger.Global()
	}
	r := &Router{
		handlers: make(map[EventType]Handler),
		log:      log,
	}
	r.fallback = func(ev Event) {
		r.log.Debug("unhandled stream event", zap.String("type", string(ev.Type())))
	}
	return r
}

// Handle registers the handler for an event type.
func (r *Router) Handle(t EventType, h Handler) {
	r.handlers[t] = h
}

// HandleUnknown replaces the catch-all handler.
func (r *Router) HandleUnknown(h Handler) {
	r.fallback = h
}

// Dispatch routes a single event.
func (r *Router) Dispatch(ev Event) {
	metrics.EventsRouted.WithLabelValues(string(ev.Type())).Inc()
	if h, ok := r.handlers[ev.Type()]; ok {
		h(ev)
		return
	}
	r.fallback(ev)
}
