package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountWorkbook(t *testing.T) {
	m := NewMetrics(NewRegistry())

	m.CountWorkbook("analyze", nil)
	m.CountWorkbook("analyze", nil)
	m.CountWorkbook("analyze", errors.New("bad zip"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Workbooks.WithLabelValues("analyze", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Workbooks.WithLabelValues("analyze", "error")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountWorkbook("export", nil)
		m.ObserveDuration("export", time.Now())
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := NewRegistry()
	m := NewMetrics(reg)
	m.Fallbacks.WithLabelValues("amount_columns").Inc()
	m.ObserveDuration("analyze", time.Now().Add(-time.Second))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sig_activa_detection_fallbacks_total{step="amount_columns"} 1`)
	assert.Contains(t, body, "sig_activa_operation_duration_seconds_count")
	assert.Contains(t, body, "go_goroutines")
}
