package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"bundle-cluster-analyzer/internal/api"
	app_service "bundle-cluster-analyzer/internal/application/service"
	"bundle-cluster-analyzer/internal/domain/clustering"
	"bundle-cluster-analyzer/internal/domain/repository"
	domain_service "bundle-cluster-analyzer/internal/domain/service"
	"bundle-cluster-analyzer/internal/infrastructure/config"
	"bundle-cluster-analyzer/internal/infrastructure/database"
	"bundle-cluster-analyzer/internal/infrastructure/logger"
	"bundle-cluster-analyzer/internal/infrastructure/messaging"
	"bundle-cluster-analyzer/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Metrics),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			newRegistry,
			metrics.NewMetrics,
			metrics.NewServer,
			database.NewNeo4JClient,
			database.NewNeo4JWalletActivityRepository,
			database.NewNeo4JExchangeRegistry,
			messaging.NewNATSConsumer,
			func(consumer *messaging.NATSConsumer, cfg *config.NATSConfig, log *logger.Logger) domain_service.ResultPublisher {
				return messaging.NewNATSResultPublisher(consumer, cfg, log)
			},
		),

		// Domain providers
		fx.Provide(
			func(cfg *config.Config) (*clustering.Analyzer, error) {
				opts, err := cfg.Analysis.EngineOptions()
				if err != nil {
					return nil, err
				}
				return clustering.NewAnalyzer(opts)
			},
		),

		// Application providers
		fx.Provide(
			newAnalysisService,
			newHTTPServer,
		),

		// Lifecycle hooks
		fx.Invoke(startAnalyzer),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startMetricsServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newAnalysisService(
	analyzer *clustering.Analyzer,
	activityRepo repository.WalletActivityRepository,
	exchanges repository.ExchangeRegistry,
	publisher domain_service.ResultPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) domain_service.BundleAnalysisService {
	return app_service.NewBundleAnalysisApplicationService(analyzer, activityRepo, exchanges, publisher, m,
		app_service.Settings{
			WorkerPoolSize: cfg.App.WorkerPoolSize,
			ActivityLimit:  cfg.Analysis.ActivityLimit,
		}, log)
}

func newHTTPServer(
	analysis domain_service.BundleAnalysisService,
	neo4jClient *database.Neo4JClient,
	consumer *messaging.NATSConsumer,
	cfg *config.Config,
	log *logger.Logger,
) *api.Server {
	checks := map[string]api.HealthCheck{
		"neo4j": neo4jClient.IsConnected,
	}
	if cfg.NATS.Enabled {
		checks["nats"] = func(context.Context) bool { return consumer.IsConnected() }
	}
	router := api.SetupRouter(analysis, checks, cfg.App.RequestTimeout, log)
	return api.NewServer(cfg.App.HTTPPort, router, log)
}

// startAnalyzer connects the stores and starts the request workers
func startAnalyzer(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	analysis domain_service.BundleAnalysisService,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
	cfg *config.Config,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting bundle analyzer...")

			// Connect to Neo4J first
			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}

			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("request_subject", cfg.NATS.RequestSubject),
				zap.String("result_subject_prefix", cfg.NATS.ResultSubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			workers.Add(1)
			go func() {
				defer workers.Done()
				processRequests(runCtx, consumer.GetMessageChannel(), analysis, log, cfg)
			}()

			log.Info("Bundle analyzer started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping bundle analyzer...")
			cancel()

			disconnectErr := consumer.Disconnect()
			workers.Wait()

			if err := neo4jClient.Close(ctx); err != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(err))
			}
			return disconnectErr
		},
	})
}

func startHTTPServer(lifecycle fx.Lifecycle, server *api.Server) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: server.Stop,
	})
}

func startMetricsServer(lifecycle fx.Lifecycle, server *metrics.Server, cfg *config.Config, log *logger.Logger) {
	if !cfg.Metrics.Enabled {
		log.Info("Metrics are disabled")
		return
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: server.Stop,
	})
}

// processRequests runs queued analysis requests on a fixed worker pool until the channel closes
func processRequests(
	ctx context.Context,
	requests <-chan *messaging.RequestMessage,
	analysis domain_service.BundleAnalysisService,
	log *logger.Logger,
	cfg *config.Config,
) {
	workerCount := cfg.App.WorkerPoolSize
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for msg := range requests {
				handleRequest(ctx, msg, analysis, log, cfg, workerID)
			}
		}(i)
	}
	wg.Wait()
}

func handleRequest(
	ctx context.Context,
	msg *messaging.RequestMessage,
	analysis domain_service.BundleAnalysisService,
	log *logger.Logger,
	cfg *config.Config,
	workerID int,
) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.App.RequestTimeout)
	defer cancel()

	reqLog := log.WithFields(map[string]interface{}{
		"worker_id":  workerID,
		"request_id": msg.Request.RequestID,
		"token":      msg.Request.TokenAddress,
	})

	result, err := analysis.Analyze(reqCtx, msg.Request)

	var payload []byte
	if err != nil {
		reqLog.Error("Failed to analyze request", zap.Error(err))
		payload, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		payload, err = json.Marshal(result)
		if err != nil {
			reqLog.Error("Failed to marshal analysis result", zap.Error(err))
			return
		}
	}

	if err := msg.Reply(payload); err != nil {
		reqLog.Warn("Failed to reply to request", zap.Error(err))
	}
}
