package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		fn     HealthFunc
		status int
		body   string
	}{
		{"healthy", func(context.Context) error { return nil }, http.StatusOK, "ok"},
		{"nil check", nil, http.StatusOK, "ok"},
		{"unhealthy", Checks(map[string]HealthFunc{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}), http.StatusServiceUnavailable, "unhealthy: redis: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handler(prometheus.NewRegistry(), tt.fn)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "eventos"})
	reg.MustRegister(c)
	c.Inc()

	rec := httptest.NewRecorder()
	Handler(reg, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_events_total 1") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
