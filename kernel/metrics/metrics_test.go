package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestIncrCounter(t *testing.T) {
	m := NewMetrics()
	// registering twice must not panic
	_ = NewMetrics()

	before := testutil.ToFloat64(counters[MetricNamePinsSucceeded])
	m.IncrCounter(MetricNamePinsSucceeded)
	require.Equal(t, before+1, testutil.ToFloat64(counters[MetricNamePinsSucceeded]))

	// unknown names and nil receivers are ignored
	m.IncrCounter(MetricName("unknown"))
	var nilMetrics *Metrics
	nilMetrics.IncrCounter(MetricNamePinsSucceeded)
	require.Equal(t, before+1, testutil.ToFloat64(counters[MetricNamePinsSucceeded]))
}

func TestRegisterHandlers(t *testing.T) {
	NewMetrics()
	router := mux.NewRouter()
	RegisterHandlers(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "synthia_bootstrap_runs")
}
