package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server runs the HTTP API
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

// NewServer wraps the router in an http.Server on port
func NewServer(port int, router *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log.WithComponent("http-server"),
	}
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting HTTP API", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP API failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP API")
	return s.srv.Shutdown(ctx)
}
