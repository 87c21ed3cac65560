package observability

import (
	"corequeue/internal/domain"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the pipeline counters exposed on the worker's /metrics.
type Metrics struct {
	registry *prometheus.Registry

	Ingested    prometheus.Counter
	Dispatched  prometheus.Counter
	Expired     prometheus.Counter
	Results     *prometheus.CounterVec
	Pending     prometheus.Gauge
	QueueWait   prometheus.Histogram
	InfraErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Ingested: f.NewCounter(prometheus.CounterOpts{
			Name: "corequeue_ingested_total",
			Help: "Requests lifted from the durable queue into the scheduler.",
		}),
		Dispatched: f.NewCounter(prometheus.CounterOpts{
			Name: "corequeue_dispatched_total",
			Help: "Requests handed to an executor.",
		}),
		Expired: f.NewCounter(prometheus.CounterOpts{
			Name: "corequeue_expired_total",
			Help: "Requests dropped after waiting past the queue timeout.",
		}),
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "corequeue_results_total",
			Help: "Results written to the result store.",
		}, []string{"status", "kind"}),
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "corequeue_pending",
			Help: "Requests waiting in the scheduler.",
		}),
		QueueWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "corequeue_queue_wait_seconds",
			Help:    "Time between scheduler arrival and dispatch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		InfraErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "corequeue_infra_errors_total",
			Help: "Durable queue, result store and account store failures.",
		}, []string{"component"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveResult(r domain.Result) {
	m.Results.WithLabelValues(string(r.Status), string(r.Kind())).Inc()
}

func (m *Metrics) ObserveDispatch(r domain.ScheduledRequest, now time.Time) {
	m.Dispatched.Inc()
	m.QueueWait.Observe(now.Sub(r.ArrivalTime).Seconds())
}
