package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/infrastructure/config"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	fetchBatchSize = 10
	fetchMaxWait   = 5 * time.Second
)

// RequestMessage is one decoded analysis request together with its reply route
type RequestMessage struct {
	Request *entity.AnalysisRequest

	// replyTo is set for core NATS request/reply messages only
	replyTo string
	conn    *nats.Conn
}

// Reply answers a core NATS request. Messages without a reply inbox are ignored.
func (m *RequestMessage) Reply(payload []byte) error {
	if m.replyTo == "" || m.conn == nil {
		return nil
	}
	return m.conn.Publish(m.replyTo, payload)
}

// NATSConsumer receives analysis requests over NATS, JetStream first with a core NATS fallback
type NATSConsumer struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	msgChan chan *RequestMessage

	mu        sync.RWMutex
	isRunning bool
	done      chan struct{}
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	pending := cfg.MaxPendingMessages
	if pending <= 0 {
		pending = 1
	}
	return &NATSConsumer{
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		msgChan: make(chan *RequestMessage, pending),
		done:    make(chan struct{}),
	}
}

// Connect connects to NATS server and sets up consumer
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("bundle-cluster-analyzer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream(nats.Context(ctx))
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.js = js
	return n.setupJetStreamSubscription()
}

// setupJetStreamSubscription binds a durable pull consumer on the request stream
func (n *NATSConsumer) setupJetStreamSubscription() error {
	subject := n.config.RequestSubject
	durable := n.config.QueueGroup

	n.logger.Info("Setting up JetStream subscription",
		zap.String("subject", subject),
		zap.String("stream", n.config.StreamName),
		zap.String("durable", durable))

	sub, err := n.js.PullSubscribe(subject, durable, nats.BindStream(n.config.StreamName))
	if err != nil {
		n.logger.Warn("Failed to bind JetStream consumer, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.sub = sub
	n.setRunning(true)

	go n.processJetStreamMessages()

	n.logger.Info("Successfully connected to NATS JetStream", zap.String("subject", subject))
	return nil
}

// processJetStreamMessages fetches batches until the consumer is disconnected
func (n *NATSConsumer) processJetStreamMessages() {
	n.logger.Info("Starting JetStream message processing")

	for {
		select {
		case <-n.done:
			n.logger.Info("Stopped JetStream message processing")
			return
		default:
		}

		msgs, err := n.sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				n.logger.Info("Stopped JetStream message processing")
				return
			}
			n.logger.Error("Failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			n.handleMessage(msg, true)
		}
	}
}

// setupCoreNATSSubscription sets up core NATS queue subscription
func (n *NATSConsumer) setupCoreNATSSubscription() error {
	subject := n.config.RequestSubject
	queueGroup := n.config.QueueGroup

	n.logger.Info("Setting up core NATS subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	sub, err := n.conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		n.handleMessage(msg, false)
	})
	if err != nil {
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.sub = sub
	n.setRunning(true)

	n.logger.Info("Successfully connected to core NATS",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	return nil
}

// handleMessage decodes a request and hands it to the processing channel
func (n *NATSConsumer) handleMessage(msg *nats.Msg, jetStream bool) {
	req, err := DecodeRequest(msg.Data)
	if err != nil {
		n.logger.Error("Failed to decode analysis request", zap.Error(err))
		if jetStream {
			// a malformed payload never becomes valid on redelivery
			_ = msg.Term()
		} else if msg.Reply != "" {
			_ = msg.Respond(errorPayload(err))
		}
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	rm := &RequestMessage{Request: req}
	if !jetStream && msg.Reply != "" {
		rm.replyTo = msg.Reply
		rm.conn = n.conn
	}

	if !n.isRunning {
		if jetStream {
			_ = msg.Nak()
		}
		return
	}

	select {
	case n.msgChan <- rm:
		n.logger.Debug("Queued analysis request",
			zap.String("request_id", req.RequestID),
			zap.String("token", req.TokenAddress))
		if jetStream {
			_ = msg.Ack()
		}
	default:
		n.logger.Warn("Request channel is full, dropping request",
			zap.String("request_id", req.RequestID))
		if jetStream {
			_ = msg.Nak()
		} else if msg.Reply != "" {
			_ = msg.Respond(errorPayload(errors.New("analyzer overloaded")))
		}
	}
}

// DecodeRequest parses an AnalysisRequest JSON payload
func DecodeRequest(data []byte) (*entity.AnalysisRequest, error) {
	var req entity.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis request: %w", err)
	}
	return &req, nil
}

func errorPayload(err error) []byte {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return payload
}

func (n *NATSConsumer) setRunning(running bool) {
	n.mu.Lock()
	n.isRunning = running
	n.mu.Unlock()
}

// Disconnect disconnects from NATS server
func (n *NATSConsumer) Disconnect() error {
	n.mu.Lock()
	wasRunning := n.isRunning
	n.isRunning = false
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()

	if wasRunning {
		close(n.done)
	}
	if n.sub != nil {
		_ = n.sub.Unsubscribe()
		n.sub = nil
	}
	if conn != nil {
		conn.Close()
	}

	n.mu.Lock()
	close(n.msgChan)
	n.mu.Unlock()

	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}

// Conn returns the underlying connection, nil when NATS is disabled or disconnected
func (n *NATSConsumer) Conn() *nats.Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn
}

// GetMessageChannel returns the request channel
func (n *NATSConsumer) GetMessageChannel() <-chan *RequestMessage {
	return n.msgChan
}
