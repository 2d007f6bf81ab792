// Package metrics exposes Prometheus metrics for the style transfer server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/style-studio/backend/internal/models"
)

const namespace = "style_studio"

// Metrics holds the server's collectors, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsTotal      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	bytesIn        prometheus.Counter
	bytesOut       prometheus.Counter
	uploadRejects  *prometheus.CounterVec
	cleanupRemoved prometheus.Counter
}

// New creates the collectors. Process and Go runtime collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished style transfer jobs by style, media kind and status",
		}, []string{"style", "kind", "status"}),

		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Style transfer job duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"}),

		bytesIn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Bytes of uploaded media processed",
		}),

		bytesOut: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Bytes of styled results written",
		}),

		uploadRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejections_total",
			Help:      "Uploads rejected before processing, by reason code",
		}, []string{"reason"}),

		cleanupRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_removed_files_total",
			Help:      "Files removed by upload/result cleanup",
		}),
	}
}

// ObserveJob records a finished job. It matches the job manager's finish listener signature.
func (m *Metrics) ObserveJob(job models.Job) {
	m.jobsTotal.WithLabelValues(job.Style, string(job.Kind), string(job.Status)).Inc()
	m.jobDuration.WithLabelValues(string(job.Kind)).Observe(job.Duration().Seconds())
	m.bytesIn.Add(float64(job.InputSize))
	if job.Status == models.JobStatusComplete {
		m.bytesOut.Add(float64(job.OutputSize))
	}
}

// RejectUpload counts an upload refused with the given error code.
func (m *Metrics) RejectUpload(reason string) {
	m.uploadRejects.WithLabelValues(reason).Inc()
}

// CleanupRemoved counts files removed by a cleanup pass.
func (m *Metrics) CleanupRemoved(n int) {
	m.cleanupRemoved.Add(float64(n))
}

// TrackRunning exposes the number of running jobs through fn.
func (m *Metrics) TrackRunning(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_running",
		Help:      "Jobs currently holding a processing slot",
	}, func() float64 { return float64(fn()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
