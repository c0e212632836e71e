// Package metrics exposes the server's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	cascadeFolders  prometheus.Counter
	cascadeFiles    prometheus.Counter
	cascadeFailures *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	publishFailures prometheus.Counter
	eventsRecorded  *prometheus.CounterVec
	sharesIssued    *prometheus.CounterVec
	sharesRedeemed  *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		cascadeFolders: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkdrive_cascade_folders_deleted_total",
			Help: "Folders removed by cascade deletion",
		}),
		cascadeFiles: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkdrive_cascade_files_deleted_total",
			Help: "Files removed by cascade deletion",
		}),
		cascadeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkdrive_cascade_failures_total",
			Help: "Cascade deletions that stopped with an error, by error kind",
		}, []string{"kind"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkdrive_uploads_total",
			Help: "Upload attempts by outcome",
		}, []string{"status"}),
		uploadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkdrive_upload_bytes_total",
			Help: "Bytes written to the object store by uploads",
		}),
		publishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkdrive_upload_event_publish_failures_total",
			Help: "Upload events that could not be published after the blob was stored",
		}),
		eventsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkdrive_upload_events_recorded_total",
			Help: "Upload events handled by the metadata recorder, by result",
		}, []string{"result"}),
		sharesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkdrive_shares_issued_total",
			Help: "Share tokens issued, by channel",
		}, []string{"channel"}),
		sharesRedeemed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkdrive_shares_redeemed_total",
			Help: "Share token redemptions, by result",
		}, []string{"result"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sparkdrive_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the registry every collector is registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) CascadeDeleted(folders, files int) {
	if m == nil {
		return
	}
	m.cascadeFolders.Add(float64(folders))
	m.cascadeFiles.Add(float64(files))
}

func (m *Metrics) CascadeFailed(kind string) {
	if m == nil {
		return
	}
	m.cascadeFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Upload(status string, bytes int) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *Metrics) EventRecorded(result string) {
	if m == nil {
		return
	}
	m.eventsRecorded.WithLabelValues(result).Inc()
}

func (m *Metrics) ShareIssued(channel string) {
	if m == nil {
		return
	}
	m.sharesIssued.WithLabelValues(channel).Inc()
}

func (m *Metrics) ShareRedeemed(result string) {
	if m == nil {
		return
	}
	m.sharesRedeemed.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
