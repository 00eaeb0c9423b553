package service

import (
	"context"
	"errors"

	"bundle-cluster-analyzer/internal/domain/entity"
)

var (
	// ErrInvalidRequest marks a request that cannot be analyzed as given
	ErrInvalidRequest = errors.New("invalid analysis request")
	// ErrNoActivity is returned when no wallet activity could be found for a token
	ErrNoActivity = errors.New("no wallet activity for token")
)

// BundleAnalysisService defines the interface for bundle cluster analysis
type BundleAnalysisService interface {
	// Analyze runs one analysis request
	Analyze(ctx context.Context, req *entity.AnalysisRequest) (*entity.AnalysisResult, error)

	// AnalyzeBatch runs independent requests concurrently; results follow request order
	AnalyzeBatch(ctx context.Context, reqs []*entity.AnalysisRequest) ([]*entity.AnalysisResult, error)

	// AnalyzeToken analyzes a token from the activity stored in the graph.
	// A nil market is loaded from the graph as well.
	AnalyzeToken(ctx context.Context, tokenAddress string, market *entity.MarketSnapshot) (*entity.AnalysisResult, error)
}

// ResultPublisher delivers finished analyses to downstream consumers
type ResultPublisher interface {
	Publish(ctx context.Context, result *entity.AnalysisResult) error
}
