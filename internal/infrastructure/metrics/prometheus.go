// Package metrics provides Prometheus collectors for bundle analyses.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/infrastructure/config"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "bundle_analyzer"

// Metrics holds the analysis collectors
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisFailures *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	ClustersPerToken prometheus.Histogram
	WalletsAnalyzed  prometheus.Histogram
	PublishFailures  prometheus.Counter
	InFlight         prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers all collectors on reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by overall risk",
		}, []string{"overall_risk"}),
		AnalysisFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Failed analyses by reason",
		}, []string{"reason"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent loading and analyzing one token",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		ClustersPerToken: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_per_analysis",
			Help:      "Number of bundle clusters found per analysis",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		WalletsAnalyzed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wallets_per_analysis",
			Help:      "Number of wallets submitted per analysis",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Results that could not be published",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_in_flight",
			Help:      "Analyses currently running",
		}),
		gatherer: reg,
	}
}

// ObserveAnalysis records a completed analysis
func (m *Metrics) ObserveAnalysis(walletCount int, result *entity.AnalysisResult, took time.Duration) {
	m.AnalysesTotal.WithLabelValues(string(result.OverallRisk)).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
	m.ClustersPerToken.Observe(float64(result.ClusterCount))
	m.WalletsAnalyzed.Observe(float64(walletCount))
}

// ObserveFailure records a failed analysis
func (m *Metrics) ObserveFailure(reason string) {
	m.AnalysisFailures.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Server exposes the metrics endpoint on its own port
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

// NewServer creates the metrics HTTP server
func NewServer(cfg *config.MetricsConfig, m *Metrics, logger *logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.WithComponent("metrics-server"),
	}
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting metrics server", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
