package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPhotoMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPhotoMetrics(reg)
	metrics.IncShape("legacy_urls")
	metrics.IncShape("legacy_urls")
	metrics.IncUpload("failed")
	metrics.IncDelete("")
	metrics.ObserveStorage("put", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_photo_shapes_total", "shape", "legacy_urls"); err != nil {
		t.Fatalf("fetch shapes: %v", err)
	} else if got != 2 {
		t.Fatalf("expected shapes=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_photo_uploads_total", "result", "failed"); err != nil {
		t.Fatalf("fetch uploads: %v", err)
	} else if got != 1 {
		t.Fatalf("expected uploads=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_photo_deletes_total", "outcome", "unknown"); err != nil {
		t.Fatalf("fetch deletes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty outcome to be labelled unknown, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_photo_storage_duration_seconds", "op", "put"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPhotoMetricsNilSafe(t *testing.T) {
	var metrics *PhotoMetrics
	metrics.IncShape("empty")
	metrics.IncUpload("ok")
	metrics.IncDelete("deleted")
	metrics.ObserveStorage("delete", time.Second)

	unregistered := NewPhotoMetrics(nil)
	unregistered.IncShape("empty")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
