// Package server builds the HTTP engine shared by every module and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/middleware"
)

// Pinger is the part of the pool the health endpoint needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewEngine returns a gin engine with the common middleware chain and the
// unprefixed /health endpoint. Modules are mounted by the caller.
func NewEngine(cfg *config.Config, db Pinger, log *slog.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestContext(cfg.Server.RequestTimeout),
		middleware.RequestLogger(log),
		cors.New(corsConfig(cfg.Server.AllowedOrigins)),
		middleware.ErrorHandler(log),
	)

	engine.GET("/health", healthHandler(cfg, db))
	return engine
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
	c.ExposeHeaders = []string{middleware.HeaderRequestID}
	c.AllowCredentials = true
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func healthHandler(cfg *config.Config, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"app":       cfg.App.Name,
			"version":   cfg.App.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db == nil {
			body["status"] = "unhealthy"
			body["database"] = "not configured"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		if err := db.PingContext(ctx); err != nil {
			body["status"] = "unhealthy"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		body["database"] = "ok"
		c.JSON(http.StatusOK, body)
	}
}

// Run serves handler on lis until ctx is cancelled, then shuts down
// gracefully within timeout.
func Run(ctx context.Context, lis net.Listener, handler http.Handler, timeout time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "address", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
