package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/handler"
	"github.com/FACorreiaa/sig-activa/pkg/config"
	"github.com/FACorreiaa/sig-activa/pkg/interceptors"
	"github.com/FACorreiaa/sig-activa/pkg/observability"
)

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer deps.Scheduler.Stop()
	}

	if cfg.Observability.MetricsEnabled {
		go func() {
			if err := observability.Serve(ctx, cfg.Observability.MetricsPort, deps.Registry, logger); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// NewRouter mounts the connect service and the HTTP routes behind the shared middleware.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	path, rpcHandler := handler.NewFluctuationServiceHandler(
		deps.FluctuationHandler,
		connect.WithInterceptors(
			interceptors.NewLoggingInterceptor(deps.Logger),
			interceptors.NewAuthInterceptor(deps.Verifier),
		),
	)
	mux.Handle(path, rpcHandler)

	deps.HTTPHandler.Register(mux, func(next http.Handler) http.Handler {
		return interceptors.AuthMiddleware(deps.Verifier, next)
	})

	var h http.Handler = interceptors.MetricsMiddleware(deps.Metrics, mux)
	limiter := interceptors.NewLimiter(deps.Config.Server.RateLimitPerSecond, deps.Config.Server.RateLimitBurst)
	h = interceptors.RateLimitMiddleware(limiter, deps.Metrics.RateLimited.Inc, h)
	h = withCORS(deps.Config.Server.AllowedOrigins, h)
	return interceptors.LoggingMiddleware(deps.Logger, h)
}

func withCORS(origins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   append(connectcors.AllowedMethods(), http.MethodPut, http.MethodDelete),
		AllowedHeaders:   append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders:   append(connectcors.ExposedHeaders(), "Content-Disposition"),
		AllowCredentials: true,
		MaxAge:           7200,
	})
	return middleware.Handler(h)
}
