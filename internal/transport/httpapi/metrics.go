package httpapi

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Metrics are process-local counters exposed in Prometheus text format.
type Metrics struct {
	UsersCreated     atomic.Uint64
	EventsApplied    atomic.Uint64
	EventsIdempotent atomic.Uint64
	EventsRejected   atomic.Uint64
}

// WritePrometheus emits the minimal exposition format. wsSessions is
// sampled by the caller since the hub lives outside this package.
func (m *Metrics) WritePrometheus(w io.Writer, wsSessions int) {
	fmt.Fprintf(w, "# HELP emberhollow_users_created_total Users created via /v1/user/me.\n")
	fmt.Fprintf(w, "# TYPE emberhollow_users_created_total counter\n")
	fmt.Fprintf(w, "emberhollow_users_created_total %d\n", m.UsersCreated.Load())

	fmt.Fprintf(w, "# HELP emberhollow_events_total Event trigger outcomes.\n")
	fmt.Fprintf(w, "# TYPE emberhollow_events_total counter\n")
	fmt.Fprintf(w, "emberhollow_events_total{outcome=%q} %d\n", "applied", m.EventsApplied.Load())
	fmt.Fprintf(w, "emberhollow_events_total{outcome=%q} %d\n", "idempotent", m.EventsIdempotent.Load())
	fmt.Fprintf(w, "emberhollow_events_total{outcome=%q} %d\n", "rejected", m.EventsRejected.Load())

	fmt.Fprintf(w, "# HELP emberhollow_ws_sessions Open websocket sessions.\n")
	fmt.Fprintf(w, "# TYPE emberhollow_ws_sessions gauge\n")
	fmt.Fprintf(w, "emberhollow_ws_sessions %d\n", wsSessions)
}
