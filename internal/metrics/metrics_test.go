package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransaction("add", "Success", time.Millisecond)
	m.ObserveTransaction("add", "Success", time.Millisecond)
	m.ObserveTransaction("update", "VersionMismatch", time.Millisecond)
	m.ObserveLoad(LoadSuccess, 10*time.Millisecond)
	m.ObserveLoad(LoadShared, 0)
	m.LoadAttempt()
	m.SetCached("category", 3)
	m.Reclaimed("authors")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("add", "Success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("update", "VersionMismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues(LoadShared)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadAttempts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cached.WithLabelValues("category")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reclaims.WithLabelValues("authors")))
}

func TestNilMetricsRecordsNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransaction("add", "Success", time.Millisecond)
		m.ObserveLoad(LoadTimeout, time.Second)
		m.LoadAttempt()
		m.SetCached("store", 1)
		m.Reclaimed("stores")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Reclaimed("books")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `prices_engine_autoincrement_reclaims_total{table="books"} 1`))
}
