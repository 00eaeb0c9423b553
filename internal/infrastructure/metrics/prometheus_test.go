package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAnalysis(12, &entity.AnalysisResult{OverallRisk: entity.OverallRiskCritical, ClusterCount: 1}, 20*time.Millisecond)
	m.ObserveAnalysis(3, &entity.AnalysisResult{OverallRisk: entity.OverallRiskLow}, time.Millisecond)
	m.ObserveFailure("no_activity")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("LOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisFailures.WithLabelValues("no_activity")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveFailure("invalid_request")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bundle_analyzer_analysis_failures_total{reason="invalid_request"} 1`))
}
