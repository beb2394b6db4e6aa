// Package metrics exposes the Prometheus gauges and counters named in
// spec.md §5 (the global open-subscription counter, relay assignment
// state) and general engine observability, grounded on the teacher's
// promauto-based metrics table.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenSubscriptions is the atomic counter of spec.md §5: incremented
	// on Subscribe, decremented on unsubscribe/CLOSE.
	OpenSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gossip_open_subscriptions",
		Help: "The number of currently open relay subscriptions",
	})

	ConnectedRelays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gossip_connected_relays",
		Help: "The number of relays with a live minion connection",
	})

	ExcludedRelays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gossip_excluded_relays",
		Help: "The number of relays currently in the picker's penalty box",
	})

	RelayAssignments = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gossip_relay_assignment_pubkeys",
		Help: "The number of pubkeys assigned to each relay by the picker",
	}, []string{"relay"})

	MinionReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gossip_minion_reconnects_total",
		Help: "Total minion reconnect attempts by relay",
	}, []string{"relay"})

	MinionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gossip_minion_errors_total",
		Help: "Total minion transport errors by relay and class",
	}, []string{"relay", "class"})

	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gossip_events_ingested_total",
		Help: "Total events accepted by the processor, by kind",
	}, []string{"kind"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gossip_events_rejected_total",
		Help: "Total events rejected by the processor, by reason",
	}, []string{"reason"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gossip_events_published_total",
		Help: "Total events queued for publish, by relay",
	}, []string{"relay"})
)

// SetRelayAssignment records relay's current assigned pubkey count.
func SetRelayAssignment(relay string, count int) {
	RelayAssignments.WithLabelValues(relay).Set(float64(count))
}

// DropRelayAssignment removes relay's assignment gauge entirely, so a
// disconnected relay does not linger in /metrics output.
func DropRelayAssignment(relay string) {
	RelayAssignments.DeleteLabelValues(relay)
}
