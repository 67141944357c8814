package metrics

import (
	"net/http"
	"time"

	"haventory/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple instances never collide on the global one.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	commands      *prometheus.CounterVec
	persist       prometheus.Histogram
	counts        *prometheus.GaugeVec
	eventsDropped prometheus.Counter
	jobRuns       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haventory",
			Name:      "commands_total",
			Help:      "Inventory commands by operation and result code.",
		}, []string{"op", "code"}),
		persist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "haventory",
			Name:      "persist_duration_seconds",
			Help:      "Time spent saving the snapshot after a mutation.",
			Buckets:   prometheus.DefBuckets,
		}),
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "haventory",
			Name:      "inventory_count",
			Help:      "Current inventory aggregates.",
		}, []string{"kind"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "haventory",
			Name:      "subscription_events_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haventory",
			Name:      "job_runs_total",
			Help:      "Background job runs by job and status.",
		}, []string{"job", "status"}),
	}
	m.registry.MustRegister(
		m.commands, m.persist, m.counts, m.eventsDropped, m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand counts op under the error code of err, or "ok".
func (m *Metrics) ObserveCommand(op string, err error) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = models.ErrorCode(err)
	}
	m.commands.WithLabelValues(op, code).Inc()
}

func (m *Metrics) ObservePersist(d time.Duration) {
	if m == nil {
		return
	}
	m.persist.Observe(d.Seconds())
}

func (m *Metrics) SetCounts(c models.Counts) {
	if m == nil {
		return
	}
	m.counts.WithLabelValues("items").Set(float64(c.ItemsTotal))
	m.counts.WithLabelValues("low_stock").Set(float64(c.LowStockCount))
	m.counts.WithLabelValues("checked_out").Set(float64(c.CheckedOutCount))
	m.counts.WithLabelValues("locations").Set(float64(c.LocationsTotal))
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) ObserveJob(job string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
