package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counters wired per SPEC_FULL.md §A: ring overwrites, MPSC
// full-rejections, journal page-full events, adapter reconnects, and
// parse-error counts. Registered against the default registry so a
// single /metrics handler in cmd/gateway exposes all of them.
var (
	RingOverwrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "ringbus",
		Name:      "overwrites_total",
		Help:      "Market events overwritten before a consumer observed them.",
	}, []string{"ring"})

	QueueRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "ringbus",
		Name:      "queue_full_rejections_total",
		Help:      "Order commands rejected because the MPSC queue was full.",
	}, []string{"queue"})

	JournalPageFull = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "journal",
		Name:      "page_full_total",
		Help:      "Writes rejected because the journal page had no remaining capacity.",
	}, []string{"page"})

	AdapterReconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "exchange",
		Name:      "adapter_reconnects_total",
		Help:      "WebSocket reconnect attempts per venue.",
	}, []string{"venue"})

	ParseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "exchange",
		Name:      "parse_errors_total",
		Help:      "Inbound frames dropped for failing to parse.",
	}, []string{"venue"})
)

func init() {
	prometheus.MustRegister(RingOverwrites, QueueRejections, JournalPageFull, AdapterReconnects, ParseErrors)
}
