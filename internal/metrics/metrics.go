// README: Prometheus collectors for the realtime layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service collectors so main can wire them once and
// components receive only the counters they touch.
type Registry struct {
	reg *prometheus.Registry

	Connections     prometheus.Gauge
	EventsPublished *prometheus.CounterVec
	OrdersPromoted  prometheus.Counter
	TransitionErrs  prometheus.Counter
}

func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "resto_realtime_connections",
		Help: "Currently connected realtime clients.",
	})
	r.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resto_realtime_events_published_total",
		Help: "Events fanned out to subscribers, by event name.",
	}, []string{"event"})
	r.OrdersPromoted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resto_orders_promoted_total",
		Help: "Scheduled orders promoted into the live set.",
	})
	r.TransitionErrs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resto_order_transition_errors_total",
		Help: "Rejected or conflicted status transition attempts.",
	})

	r.reg.MustRegister(r.Connections, r.EventsPublished, r.OrdersPromoted, r.TransitionErrs)
	return r
}

// Handler exposes the registry for the /metrics route.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
