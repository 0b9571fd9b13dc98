package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline's prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	PagesReconstructed prometheus.Counter
	SectionsEmitted    prometheus.Counter
	SplitDuration      prometheus.Histogram
	QueueDepth         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsplit",
			Name:      "documents_processed_total",
			Help:      "Documents that finished processing, by final status.",
		}, []string{"status"}),
		PagesReconstructed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "docsplit",
			Name:      "pages_reconstructed_total",
			Help:      "Pages of linear text produced by parsing.",
		}),
		SectionsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "docsplit",
			Name:      "sections_emitted_total",
			Help:      "Token-bounded sections produced by the splitter.",
		}),
		SplitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docsplit",
			Name:      "split_duration_seconds",
			Help:      "Time spent splitting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "docsplit",
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
	}
}

func (m *Metrics) documentDone(status JobStatus) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) pages(n int) {
	if m == nil {
		return
	}
	m.PagesReconstructed.Add(float64(n))
}

func (m *Metrics) split(sections int, d time.Duration) {
	if m == nil {
		return
	}
	m.SectionsEmitted.Add(float64(sections))
	m.SplitDuration.Observe(d.Seconds())
}

func (m *Metrics) queueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
