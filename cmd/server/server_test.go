package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resource-monitor/pkg/config"
	"github.com/resource-monitor/pkg/metrics"
	"github.com/resource-monitor/pkg/monitor"
)

func newTestServer(t *testing.T, state monitor.State) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	sm := metrics.NewMetricFactory(reg).NewSamplerMetrics()
	sm.Ticks.Add(3)
	return NewHTTPServer(config.NewDefaultConfig().Server, zap.NewNop(), reg, func() monitor.State { return state })
}

func TestHealthRunning(t *testing.T) {
	srv := newTestServer(t, monitor.Running)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", strings.TrimSpace(rec.Body.String()))
}

func TestHealthStopped(t *testing.T) {
	srv := newTestServer(t, monitor.Stopping)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "stopping", strings.TrimSpace(rec.Body.String()))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, monitor.Running)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "resource_monitor_ticks_total 3")
}

func TestStartAndShutdown(t *testing.T) {
	cfg := config.NewDefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	srv := NewHTTPServer(cfg, zap.NewNop(), prometheus.NewRegistry(), nil)

	require.NoError(t, srv.Start())
	assert.NoError(t, srv.Shutdown())
}
