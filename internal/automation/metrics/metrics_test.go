package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	io_prometheus_client "github.com/prometheus/client_model/go"
)

func TestInstrumentHandlerRecordsMetrics(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !metricCounterGreaterOrEqual(t, "automation_http_requests_total", map[string]string{
		"method": "GET", "path": "/resources", "status": "202",
	}, 1) {
		t.Fatal("expected http request counter to increment")
	}
	if !metricHistogramCountGreaterOrEqual(t, "automation_http_request_duration_seconds", map[string]string{
		"method": "GET", "path": "/resources",
	}, 1) {
		t.Fatal("expected http duration histogram to record samples")
	}
}

func TestInstrumentHandlerMetricsPathPassthrough(t *testing.T) {
	called := false
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Fatal("expected /metrics path to pass straight through")
	}
}

func TestRecordSessionTransition(t *testing.T) {
	RecordSessionTransition("COMPLETED")
	if !metricCounterGreaterOrEqual(t, "automation_sessions_transitions_total", map[string]string{"to": "COMPLETED"}, 1) {
		t.Fatal("expected session transition counter to increment")
	}
}

func TestRecordDispatchAssignment(t *testing.T) {
	RecordDispatchAssignment("assigned")
	if !metricCounterGreaterOrEqual(t, "automation_dispatch_assignments_total", map[string]string{"outcome": "assigned"}, 1) {
		t.Fatal("expected dispatch assignment counter to increment")
	}
}

func TestRecordSchedulerTick(t *testing.T) {
	RecordSchedulerTick(50*time.Millisecond, "ok")
	if !metricCounterGreaterOrEqual(t, "automation_scheduler_ticks_total", map[string]string{"outcome": "ok"}, 1) {
		t.Fatal("expected scheduler tick counter to increment")
	}
	if !metricHistogramCountGreaterOrEqual(t, "automation_scheduler_tick_duration_seconds", nil, 1) {
		t.Fatal("expected scheduler tick duration histogram to record")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty metrics response")
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	sr.WriteHeader(http.StatusNotFound)
	if sr.status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", sr.status)
	}

	rec2 := httptest.NewRecorder()
	sr2 := &statusRecorder{ResponseWriter: rec2, status: 0}
	n, err := sr2.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("unexpected write result: n=%d err=%v", n, err)
	}
	if sr2.status != http.StatusOK {
		t.Fatalf("expected default status 200, got %d", sr2.status)
	}
}

func metricCounterGreaterOrEqual(t *testing.T, name string, labels map[string]string, min float64) bool {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric, labels) && metric.GetCounter() != nil {
				return metric.GetCounter().GetValue() >= min
			}
		}
	}
	return false
}

func metricHistogramCountGreaterOrEqual(t *testing.T, name string, labels map[string]string, min uint64) bool {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric, labels) && metric.GetHistogram() != nil {
				return metric.GetHistogram().GetSampleCount() >= min
			}
		}
	}
	return false
}

func labelsMatch(metric *io_prometheus_client.Metric, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	if len(metric.GetLabel()) < len(labels) {
		return false
	}
	matched := 0
	for _, lbl := range metric.GetLabel() {
		if val, ok := labels[lbl.GetName()]; ok && val == lbl.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}
