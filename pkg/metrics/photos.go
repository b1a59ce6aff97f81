package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PhotoMetrics records how product photos move through the read and write paths.
type PhotoMetrics struct {
	shapes   *prometheus.CounterVec
	uploads  *prometheus.CounterVec
	deletes  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPhotoMetrics registers the photo metrics on the provided registerer.
func NewPhotoMetrics(reg prometheus.Registerer) *PhotoMetrics {
	if reg == nil {
		return &PhotoMetrics{}
	}
	shapes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_photo_shapes_total",
		Help: "Photo documents normalized on read, by detected shape.",
	}, []string{"shape"})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_photo_uploads_total",
		Help: "Photo uploads attempted, by result.",
	}, []string{"result"})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_photo_deletes_total",
		Help: "Photo blob deletions attempted, by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_photo_storage_duration_seconds",
		Help:    "Duration of blob storage calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(shapes, uploads, deletes, duration)
	return &PhotoMetrics{
		shapes:   shapes,
		uploads:  uploads,
		deletes:  deletes,
		duration: duration,
	}
}

// IncShape counts one normalized document of the given shape.
func (p *PhotoMetrics) IncShape(shape string) {
	if p == nil || p.shapes == nil {
		return
	}
	p.shapes.WithLabelValues(normalizeLabel(shape)).Inc()
}

// IncUpload counts one upload attempt with its result.
func (p *PhotoMetrics) IncUpload(result string) {
	if p == nil || p.uploads == nil {
		return
	}
	p.uploads.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncDelete counts one delete attempt with its outcome.
func (p *PhotoMetrics) IncDelete(outcome string) {
	if p == nil || p.deletes == nil {
		return
	}
	p.deletes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveStorage records the duration of a blob storage call.
func (p *PhotoMetrics) ObserveStorage(op string, d time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(op)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
