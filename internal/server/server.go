package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/platform/auth"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/httpapi"
	"streakd/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

// Registrar mounts a module's routes on the authenticated /api group.
type Registrar interface {
	Register(api *gin.RouterGroup)
}

type Server struct {
	router *gin.Engine
	logger hclog.Logger
}

func New(verifier auth.Verifier, logger hclog.Logger, handlers ...Registrar) *Server {
	logger = logging.OrDiscard(logger).Named("http")
	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.NoRoute(func(c *gin.Context) {
		httpapi.Fail(c, fmt.Errorf("%w: route %s %s", apperrors.ErrNotFound, c.Request.Method, c.Request.URL.Path))
	})

	api := router.Group("/api", authenticate(verifier))
	for _, h := range handlers {
		h.Register(api)
	}
	return &Server{router: router, logger: logger}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
