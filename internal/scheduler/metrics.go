package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes scheduler counters for Prometheus scraping.
type Metrics struct {
	scheduled prometheus.Counter
	replaced  prometheus.Counter
	fired     prometheus.Counter
	cancelled prometheus.Counter
	pending   prometheus.Gauge
}

// NewMetrics registers scheduler metrics on reg (DefaultRegisterer when nil).
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_scheduled_total",
			Help:      "Total number of jobs registered",
		}),
		replaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_replaced_total",
			Help:      "Total number of jobs replaced by a schedule with the same id",
		}),
		fired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_fired_total",
			Help:      "Total number of job actions executed",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_cancelled_total",
			Help:      "Total number of jobs removed before firing",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_pending",
			Help:      "Number of currently registered jobs",
		}),
	}
	reg.MustRegister(m.scheduled, m.replaced, m.fired, m.cancelled, m.pending)
	return m
}
