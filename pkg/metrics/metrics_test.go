package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/product/{id}", 200, 120*time.Millisecond)
	m.Observe("GET", "/api/product/{id}", 404, 5*time.Millisecond)
	m.Observe("GET", "", 200, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchCounterValue(mfs, "storefront_http_requests_total", map[string]string{"route": "/api/product/{id}", "status": "404"})
	if err != nil {
		t.Fatalf("fetch requests: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected one 404, got %f", got)
	}

	if _, err := fetchCounterValue(mfs, "storefront_http_requests_total", map[string]string{"route": "unknown"}); err != nil {
		t.Fatalf("expected blank route to be normalized: %v", err)
	}

	sum, err := fetchHistogramSum(mfs, "storefront_http_request_duration_seconds", map[string]string{"route": "/api/product/{id}"})
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum < 0.12 {
		t.Fatalf("expected duration sum >= 0.12, got %f", sum)
	}
}

func TestOrderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.IncVerification(OutcomeVerified)
	m.IncVerification(OutcomeSignatureMismatch)
	m.IncVerification(OutcomeSignatureMismatch)
	m.IncTotalsMismatch()
	m.IncSideEffectFailure("email")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, _ := fetchCounterValue(mfs, "storefront_order_verifications_total", map[string]string{"outcome": OutcomeSignatureMismatch}); got != 2 {
		t.Fatalf("expected 2 signature mismatches, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "storefront_order_totals_mismatch_total", nil); got != 1 {
		t.Fatalf("expected totals mismatch 1, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "storefront_order_side_effect_failures_total", map[string]string{"kind": "email"}); got != 1 {
		t.Fatalf("expected email failure 1, got %f", got)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Millisecond)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)

	var o *OrderMetrics
	o.IncVerification(OutcomeError)
	o.IncTotalsMismatch()
	NewOrderMetrics(nil).IncSideEffectFailure("event")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == name && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
