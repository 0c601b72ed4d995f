package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetricsMiddlewareRecords(t *testing.T) {
	m := NewMetrics()
	h := m.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := scrape(t, m)
	assert.Contains(t, body, `scotbudget_http_requests_total{endpoint="health",method="GET",status_code="418"} 1`)
	assert.Contains(t, body, `scotbudget_http_request_duration_seconds_count{endpoint="health",method="GET"} 1`)
}

// Test handlers that never call WriteHeader are recorded as 200
func TestMetricsMiddlewareDefaultStatus(t *testing.T) {
	m := NewMetrics()
	h := m.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := scrape(t, m)
	assert.Contains(t, body, `scotbudget_http_requests_total{endpoint="root",method="GET",status_code="200"} 1`)
}

func TestRecordCalculation(t *testing.T) {
	m := NewMetrics()
	m.RecordCalculation("calculate", "ok")
	m.RecordCalculation("calculate", "ok")
	m.RecordCalculation("calculate_variation", "error")
	m.RecordCalculatorSwap()

	body := scrape(t, m)
	assert.Contains(t, body, `scotbudget_calculations_total{endpoint="calculate",status="ok"} 2`)
	assert.Contains(t, body, `scotbudget_calculations_total{endpoint="calculate_variation",status="error"} 1`)
	assert.Contains(t, body, `scotbudget_calculator_swaps_total 1`)
}

func TestEndpointName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/", "root"},
		{"/health", "health"},
		{"/calculate", "calculate"},
		{"/calculate-variation", "calculate_variation"},
		{"/policies", "policies"},
		{"/presets", "presets"},
		{"/mansion-tax", "mansion_tax"},
		{"/metrics", "metrics"},
		{"/nope", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, endpointName(tt.path), tt.path)
	}
}
