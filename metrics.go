package shopbag

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/shopbag/reconcile"
)

type metrics struct {
	registry    *prometheus.Registry
	changes     prometheus.Counter
	fallbacks   *prometheus.CounterVec
	recoveries  prometheus.Counter
	rows        *prometheus.CounterVec
	actions     *prometheus.CounterVec
	subscribers prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopbag_bag_changes_total",
			Help: "Committed bag writes.",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopbag_bag_fallbacks_total",
			Help: "Bag operations served by local storage after the delegate failed.",
		}, []string{"op"}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopbag_bag_recoveries_total",
			Help: "Corrupt persisted bags discarded.",
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopbag_reconcile_rows_total",
			Help: "Rows touched by view reconciliation.",
		}, []string{"op"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopbag_actions_total",
			Help: "Dispatched bag actions by outcome.",
		}, []string{"action", "outcome"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopbag_feed_subscribers",
			Help: "Open cross-tab event streams.",
		}),
	}
	m.registry.MustRegister(m.changes, m.fallbacks, m.recoveries, m.rows, m.actions, m.subscribers)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *metrics) observeReport(r reconcile.Report) {
	m.rows.WithLabelValues("updated").Add(float64(r.Updated))
	m.rows.WithLabelValues("removed").Add(float64(r.Removed))
	m.rows.WithLabelValues("appended").Add(float64(r.Appended))
}
