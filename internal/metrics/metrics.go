package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters
var (
	AssetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easel_assets_total",
		Help: "Rendered assets by kind and outcome",
	}, []string{"kind", "outcome"})
	SamplesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easel_samples_written_total",
		Help: "Total PCM samples written to disk",
	})
	PreviewFramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easel_preview_frames_dropped_total",
		Help: "Preview frames dropped for slow listeners",
	})
	OpusEncodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easel_preview_opus_encode_errors_total",
		Help: "Total Opus encode failures in the preview stream",
	})
)

// Gauges
var (
	PreviewListeners = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "easel_preview_listeners",
		Help: "Connected preview listeners",
	})
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "easel_last_run_timestamp_seconds",
		Help: "Unix time the last catalog render finished",
	})
)

// Histograms
var (
	RenderSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "easel_render_duration_seconds",
		Help:    "Time to synthesize and write one asset, by kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})
)

// WriteTextfile writes the default registry in the node-exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
