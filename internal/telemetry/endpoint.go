package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/logging"
)

// shutdownTimeout bounds graceful shutdown of the metrics server.
const shutdownTimeout = 5 * time.Second

// Endpoint serves the Prometheus metrics over HTTP.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	log           *slog.Logger
}

// NewEndpoint creates a telemetry endpoint from the application settings.
// Returns an error when telemetry is not enabled.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Telemetry.Listen,
		metrics:       metrics,
		log:           endpointLogger(),
	}, nil
}

func endpointLogger() *slog.Logger {
	if l := logging.ForService("telemetry"); l != nil {
		return l
	}
	return slog.Default().With("service", "telemetry")
}

// Start runs the HTTP server in a goroutine and shuts it down gracefully
// when ctx is cancelled.
func (e *Endpoint) Start(ctx context.Context) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Addr:              e.listenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		e.log.Info("telemetry endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.log.Error("telemetry server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		e.log.Info("stopping telemetry server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.server.Shutdown(shutdownCtx); err != nil {
			e.log.Error("telemetry server shutdown error", "error", err)
		}
	}()
}

// GetMetrics returns the Metrics instance served by this endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
