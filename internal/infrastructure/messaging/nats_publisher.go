package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/domain/service"
	"bundle-cluster-analyzer/internal/infrastructure/config"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ConnProvider exposes the shared NATS connection
type ConnProvider interface {
	Conn() *nats.Conn
}

// NATSResultPublisher publishes analysis results to <prefix>.<token>
type NATSResultPublisher struct {
	conns  ConnProvider
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSResultPublisher creates a publisher on the consumer's connection
func NewNATSResultPublisher(conns ConnProvider, cfg *config.NATSConfig, logger *logger.Logger) service.ResultPublisher {
	return &NATSResultPublisher{
		conns:  conns,
		config: cfg,
		logger: logger.WithComponent("nats-publisher"),
	}
}

// Publish sends the result as JSON. It is a no-op while NATS is disabled or disconnected.
func (p *NATSResultPublisher) Publish(ctx context.Context, result *entity.AnalysisResult) error {
	if !p.config.Enabled {
		return nil
	}
	conn := p.conns.Conn()
	if conn == nil || !conn.IsConnected() {
		p.logger.Debug("NATS not connected, skipping result publish",
			zap.String("request_id", result.RequestID))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	subject := ResultSubject(p.config.ResultSubjectPrefix, result.TokenAddress)
	if err := conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish analysis result to %s: %w", subject, err)
	}

	p.logger.Debug("Published analysis result",
		zap.String("subject", subject),
		zap.String("request_id", result.RequestID))
	return nil
}

// ResultSubject builds the subject a token's results are published on
func ResultSubject(prefix, token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		token = "adhoc"
	}
	// subject tokens cannot contain separators or wildcards
	token = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(token)
	return prefix + "." + token
}
