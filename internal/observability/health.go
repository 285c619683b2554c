package observability

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthChecker serves the gRPC health protocol and an HTTP /healthz with
// named readiness gates (kafka, journal) that services flip as their
// dependencies come up.
type HealthChecker struct {
	grpcHealth *health.Server
	httpServer *http.Server
	logger     *zap.Logger
	mu         sync.RWMutex
	shutdown   bool
	gates      map[string]bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		grpcHealth: health.NewServer(),
		logger:     logger,
		gates:      make(map[string]bool),
	}
}

// SetGate marks one named dependency ready or not ready
func (h *HealthChecker) SetGate(name string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gates[name] = ready
}

// RegisterGRPC registers the health service with the gRPC server
func (h *HealthChecker) RegisterGRPC(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.grpcHealth)
	h.grpcHealth.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
}

// StartHTTPServer starts the HTTP health check server
func (h *HealthChecker) StartHTTPServer(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)

	h.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	h.logger.Info("starting HTTP health server", zap.String("addr", addr))
	return h.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the health checker
func (h *HealthChecker) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.shutdown = true
	h.grpcHealth.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	h.mu.Unlock()

	if h.httpServer != nil {
		return h.httpServer.Shutdown(ctx)
	}
	return nil
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	var notReady []string
	if h.shutdown {
		notReady = append(notReady, "shutdown")
	}
	for name, ready := range h.gates {
		if !ready {
			notReady = append(notReady, name)
		}
	}
	h.mu.RUnlock()

	if len(notReady) == 0 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	sort.Strings(notReady)
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("NOT_READY: " + strings.Join(notReady, ",")))
}
