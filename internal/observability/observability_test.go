package observability

import (
	"context"
	"corequeue/internal/config"
	"corequeue/internal/domain"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveResultAndDispatch(t *testing.T) {
	m := NewMetrics()

	m.ObserveResult(domain.Success(nil))
	m.ObserveResult(domain.Failed(domain.KindCredentialResolution, "account not found", 0))
	m.ObserveDispatch(domain.ScheduledRequest{ArrivalTime: time.Now().Add(-time.Second)}, time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("fail", string(domain.KindCredentialResolution))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched))
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	m := NewMetrics()
	m.Ingested.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "corequeue_ingested_total 3")
}

func TestSetupLoggerWritesRotatedFile(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "queue.log")
	closer, err := SetupLogger(config.Log{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("hello file")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "hello file"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(config.Tracing{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(config.Tracing{Exporter: "jaeger"})
	assert.Error(t, err)
}
