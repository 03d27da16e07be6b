package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pfrederiksen/contest-digest/internal/logger"
)

// RequestIDHeader carries the per-request id
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// NewRouter registers the contest routes on a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/contests", h.SendDigest)
	r.GET("/contests/preview", h.PreviewDigest)
	r.GET("/contests/upcoming", h.GetUpcoming)
	r.GET("/contests.ics", h.GetCalendar)
	r.GET("/health", h.GetHealth)
	r.GET("/metrics", h.GetMetrics)

	return r
}

// requestLogger tags each request with an id and logs it on completion
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		fields := logger.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(started).String(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request failed", fields)
		} else {
			logger.Info("Request handled", fields)
		}
		logger.IncrCounter("http.requests")
	}
}

// Server wraps an http.Server serving the router
type Server struct {
	srv *http.Server
}

// New creates a server listening on addr
func New(addr string, h *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("HTTP server shutting down", nil)
	return s.srv.Shutdown(shutdownCtx)
}
