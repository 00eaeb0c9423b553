package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/domain/repository"
	"bundle-cluster-analyzer/internal/domain/service"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBatchSize bounds the requests accepted by one batch call
const maxBatchSize = 100

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) bool

// APIHandler serves the bundle analysis endpoints
type APIHandler struct {
	analysis       service.BundleAnalysisService
	checks         map[string]HealthCheck
	requestTimeout time.Duration
	logger         *logger.Logger
}

type batchRequest struct {
	Requests []*entity.AnalysisRequest `json:"requests"`
}

type batchResponse struct {
	Results []*entity.AnalysisResult `json:"results"`
}

// SetupRouter builds the gin engine with all routes
func SetupRouter(analysis service.BundleAnalysisService, checks map[string]HealthCheck, requestTimeout time.Duration, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handler := &APIHandler{
		analysis:       analysis,
		checks:         checks,
		requestTimeout: requestTimeout,
		logger:         log.WithComponent("http-api"),
	}
	r.Use(handler.requestLogger())

	r.GET("/health", handler.handleHealth)

	api := r.Group("/api/v1")
	{
		api.POST("/analyze", handler.handleAnalyze)
		api.POST("/analyze/batch", handler.handleAnalyzeBatch)
		api.GET("/tokens/:address/bundles", handler.handleTokenBundles)
	}

	return r
}

func (h *APIHandler) handleAnalyze(c *gin.Context) {
	var req entity.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	result, err := h.analysis.Analyze(ctx, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) handleAnalyzeBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(body.Requests) == 0 || len(body.Requests) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Batch must contain between 1 and " + strconv.Itoa(maxBatchSize) + " requests"})
		return
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	results, err := h.analysis.AnalyzeBatch(ctx, body.Requests)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batchResponse{Results: results})
}

func (h *APIHandler) handleTokenBundles(c *gin.Context) {
	address := c.Param("address")

	market, err := marketFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid market parameter", "details": err.Error()})
		return
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	result, err := h.analysis.AnalyzeToken(ctx, address, market)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check(ctx) {
			components[name] = "up"
			continue
		}
		components[name] = "down"
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}

// marketFromQuery reads an optional market snapshot; nil when no parameter is given
func marketFromQuery(c *gin.Context) (*entity.MarketSnapshot, error) {
	keys := []string{"total_supply", "price_usd", "liquidity_usd"}
	values := make([]float64, len(keys))
	present := false

	for i, key := range keys {
		raw, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		present = true
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	if !present {
		return nil, nil
	}
	return &entity.MarketSnapshot{TotalSupply: values[0], PriceUSD: values[1], LiquidityUSD: values[2]}, nil
}

func (h *APIHandler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

func (h *APIHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrTokenNotFound), errors.Is(err, service.ErrNoActivity):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Analysis request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Analysis failed"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *APIHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
