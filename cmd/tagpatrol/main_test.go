package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagpatrol/tagpatrol/internal/daemon"
	"github.com/tagpatrol/tagpatrol/pipeline"
	"github.com/tagpatrol/tagpatrol/telemetry"
)

type stubRunner struct{}

func (stubRunner) Run(context.Context) (*pipeline.Result, error) {
	return &pipeline.Result{}, nil
}

func TestMetricsServer_Health(t *testing.T) {
	telemetry.PrometheusRegistry = promclient.NewRegistry()
	d := daemon.New(stubRunner{}, daemon.Config{Interval: time.Minute})

	srv := metricsServer(d, 2112)
	assert.Equal(t, ":2112", srv.Addr)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var health daemon.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestMetricsServer_Metrics(t *testing.T) {
	telemetry.PrometheusRegistry = promclient.NewRegistry()
	d := daemon.New(stubRunner{}, daemon.Config{Interval: time.Minute})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	metricsServer(d, 2112).Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("TAGPATROL_REQUIRED_TAGS", "owner,env")
	t.Setenv("TAGPATROL_REGIONS", "us-east-1")
	configFile = ""

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "env"}, cfg.RequiredTags)
}
