package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/collabthon/backend/config"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds the HTTP server around the router.
func NewServer(cfg *config.Config, router *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.App.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		},
		log: log,
	}
}

// Run blocks serving requests until the listener fails or is shut down.
func (s *Server) Run() error {
	s.log.Infow("HTTP server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infow("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
