package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bundle-cluster-analyzer/internal/domain/clustering"
	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/domain/repository"
	"bundle-cluster-analyzer/internal/domain/service"
	"bundle-cluster-analyzer/internal/infrastructure/logger"
	"bundle-cluster-analyzer/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Failure reasons reported to metrics
const (
	reasonInvalidRequest = "invalid_request"
	reasonTokenNotFound  = "token_not_found"
	reasonNoActivity     = "no_activity"
	reasonRepository     = "repository"
	reasonCanceled       = "canceled"
)

// Settings tunes the application service
type Settings struct {
	// WorkerPoolSize bounds concurrent analyses in a batch
	WorkerPoolSize int
	// ActivityLimit caps the wallets loaded from the repository per token
	ActivityLimit int
}

var _ service.BundleAnalysisService = (*BundleAnalysisApplicationService)(nil)

// BundleAnalysisApplicationService implements BundleAnalysisService
type BundleAnalysisApplicationService struct {
	analyzer     *clustering.Analyzer
	activityRepo repository.WalletActivityRepository
	exchanges    repository.ExchangeRegistry
	publisher    service.ResultPublisher
	metrics      *metrics.Metrics
	settings     Settings
	logger       *logger.Logger
}

// NewBundleAnalysisApplicationService creates a new bundle analysis application service.
// exchanges and publisher may be nil.
func NewBundleAnalysisApplicationService(
	analyzer *clustering.Analyzer,
	activityRepo repository.WalletActivityRepository,
	exchanges repository.ExchangeRegistry,
	publisher service.ResultPublisher,
	metrics *metrics.Metrics,
	settings Settings,
	logger *logger.Logger,
) *BundleAnalysisApplicationService {
	if settings.WorkerPoolSize <= 0 {
		settings.WorkerPoolSize = 1
	}
	return &BundleAnalysisApplicationService{
		analyzer:     analyzer,
		activityRepo: activityRepo,
		exchanges:    exchanges,
		publisher:    publisher,
		metrics:      metrics,
		settings:     settings,
		logger:       logger.WithComponent("bundle-analysis-service"),
	}
}

// Analyze validates a request, loads missing activity, runs the engine and publishes the result
func (s *BundleAnalysisApplicationService) Analyze(ctx context.Context, req *entity.AnalysisRequest) (*entity.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		s.metrics.ObserveFailure(reasonCanceled)
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		s.metrics.ObserveFailure(reasonInvalidRequest)
		return nil, err
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	log := s.logger.WithRequest(requestID, req.TokenAddress)
	start := time.Now()
	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	wallets, market, err := s.resolveInputs(ctx, req)
	if err != nil {
		s.metrics.ObserveFailure(failureReason(err))
		log.Warn("Failed to resolve analysis inputs", zap.Error(err))
		return nil, err
	}

	result := s.analyzer.Analyze(wallets, market)
	result.RequestID = requestID
	result.TokenAddress = req.TokenAddress

	took := time.Since(start)
	s.metrics.ObserveAnalysis(len(wallets), result, took)

	log.Info("Bundle analysis completed",
		zap.Int("wallet_count", len(wallets)),
		zap.Int("cluster_count", result.ClusterCount),
		zap.String("overall_risk", string(result.OverallRisk)),
		zap.Float64("bundled_supply_percent", result.TotalBundledSupplyPercent),
		zap.Duration("duration", took))

	s.publish(ctx, log, result)
	return result, nil
}

// AnalyzeBatch runs independent requests concurrently, bounded by the worker pool size
func (s *BundleAnalysisApplicationService) AnalyzeBatch(ctx context.Context, reqs []*entity.AnalysisRequest) ([]*entity.AnalysisResult, error) {
	results := make([]*entity.AnalysisResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.WorkerPoolSize)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			result, err := s.Analyze(gctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Batch analysis completed", zap.Int("count", len(reqs)))
	return results, nil
}

// AnalyzeToken analyzes a token from the activity stored in the graph
func (s *BundleAnalysisApplicationService) AnalyzeToken(ctx context.Context, tokenAddress string, market *entity.MarketSnapshot) (*entity.AnalysisResult, error) {
	req := &entity.AnalysisRequest{TokenAddress: tokenAddress}
	if market != nil {
		req.Market = *market
	}
	return s.Analyze(ctx, req)
}

// resolveInputs returns the wallets and market to analyze, loading from the repository when the request carries none
func (s *BundleAnalysisApplicationService) resolveInputs(ctx context.Context, req *entity.AnalysisRequest) ([]*entity.WalletActivity, entity.MarketSnapshot, error) {
	market := req.Market

	if len(req.Wallets) > 0 {
		return s.markExchangeFunders(ctx, req.Wallets), market, nil
	}

	wallets, err := s.activityRepo.GetTokenActivity(ctx, req.TokenAddress, s.settings.ActivityLimit)
	if err != nil {
		return nil, market, fmt.Errorf("failed to load activity for %s: %w", req.TokenAddress, err)
	}
	if len(wallets) == 0 {
		return nil, market, fmt.Errorf("%w: %s", service.ErrNoActivity, req.TokenAddress)
	}

	if market.TotalSupply == 0 || market.PriceUSD == 0 || market.LiquidityUSD == 0 {
		snapshot, err := s.activityRepo.GetMarketSnapshot(ctx, req.TokenAddress)
		if err != nil {
			return nil, market, fmt.Errorf("failed to load market for %s: %w", req.TokenAddress, err)
		}
		market = fillMarket(market, *snapshot)
	}

	return wallets, market, nil
}

// fillMarket keeps every non-zero value of the requested market and takes the rest from the stored snapshot
func fillMarket(requested, stored entity.MarketSnapshot) entity.MarketSnapshot {
	if requested.TotalSupply == 0 {
		requested.TotalSupply = stored.TotalSupply
	}
	if requested.PriceUSD == 0 {
		requested.PriceUSD = stored.PriceUSD
	}
	if requested.LiquidityUSD == 0 {
		requested.LiquidityUSD = stored.LiquidityUSD
	}
	return requested
}

// markExchangeFunders flags funders the registry knows as exchanges.
// Lookup failures are logged and the wallets are analyzed as given.
func (s *BundleAnalysisApplicationService) markExchangeFunders(ctx context.Context, wallets []*entity.WalletActivity) []*entity.WalletActivity {
	if s.exchanges == nil {
		return wallets
	}

	var funders []string
	seen := make(map[string]bool)
	for _, w := range wallets {
		if w == nil || !w.FundedByNonExchange() || seen[w.FundingSource.Address] {
			continue
		}
		seen[w.FundingSource.Address] = true
		funders = append(funders, w.FundingSource.Address)
	}
	if len(funders) == 0 {
		return wallets
	}

	exchanges, err := s.exchanges.ExchangeAddresses(ctx, funders)
	if err != nil {
		s.logger.Warn("Exchange lookup failed, using funders as submitted", zap.Error(err))
		return wallets
	}
	if len(exchanges) == 0 {
		return wallets
	}

	marked := make([]*entity.WalletActivity, len(wallets))
	for i, w := range wallets {
		if w == nil || !w.FundedByNonExchange() || !exchanges[w.FundingSource.Address] {
			marked[i] = w
			continue
		}
		copied := *w
		source := *w.FundingSource
		source.IsExchange = true
		copied.FundingSource = &source
		marked[i] = &copied
	}
	return marked
}

func (s *BundleAnalysisApplicationService) publish(ctx context.Context, log *logger.Logger, result *entity.AnalysisResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, result); err != nil {
		s.metrics.PublishFailures.Inc()
		log.Warn("Failed to publish analysis result", zap.Error(err))
	}
}

func validateRequest(req *entity.AnalysisRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", service.ErrInvalidRequest)
	}
	if req.TokenAddress == "" && len(req.Wallets) == 0 {
		return fmt.Errorf("%w: token address or wallets required", service.ErrInvalidRequest)
	}
	m := req.Market
	if m.TotalSupply < 0 || m.PriceUSD < 0 || m.LiquidityUSD < 0 {
		return fmt.Errorf("%w: market values must not be negative", service.ErrInvalidRequest)
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrTokenNotFound):
		return reasonTokenNotFound
	case errors.Is(err, service.ErrNoActivity):
		return reasonNoActivity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reasonCanceled
	default:
		return reasonRepository
	}
}
