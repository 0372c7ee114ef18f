package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/shurjopay/infra/config"
	"github.com/mstgnz/shurjopay/infra/response"
)

// TokenState reports on the client's credential without exposing it
type TokenState interface {
	Held() bool
	ExpiresAt() (time.Time, bool)
}

// Pinger is implemented by backing stores that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	tokens    TokenState
	gateway   string
	stores    map[string]Pinger
	startTime time.Time
}

// HealthStatus represents overall service health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Gateway     *GatewayHealth            `json:"gateway"`
	Services    map[string]*ServiceHealth `json:"services"`
	System      *SystemHealth             `json:"system"`
}

// GatewayHealth describes the gateway session. It never contains the token.
type GatewayHealth struct {
	BaseURL        string     `json:"base_url"`
	TokenHeld      bool       `json:"token_held"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status       string `json:"status"`
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler. Nil stores are reported as
// not configured.
func NewHealthHandler(tokens TokenState, gatewayURL string, stores map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		tokens:    tokens,
		gateway:   gatewayURL,
		stores:    stores,
		startTime: time.Now(),
	}
}

// CheckHealth reports service health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: config.GetAppConfig().Environment,
		Gateway:     h.checkGateway(),
		Services:    h.checkServices(ctx),
		System:      checkSystem(),
	}

	health.Status = "healthy"
	for _, service := range health.Services {
		if service.Status == "unhealthy" {
			health.Status = "degraded"
		}
	}

	response.WriteJSON(w, http.StatusOK, response.Response{
		Code:    http.StatusOK,
		Success: true,
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkGateway() *GatewayHealth {
	gateway := &GatewayHealth{BaseURL: h.gateway}
	if h.tokens == nil {
		return gateway
	}
	gateway.TokenHeld = h.tokens.Held()
	if expiresAt, ok := h.tokens.ExpiresAt(); ok && gateway.TokenHeld {
		gateway.TokenExpiresAt = &expiresAt
	}
	return gateway
}

func (h *HealthHandler) checkServices(ctx context.Context) map[string]*ServiceHealth {
	services := make(map[string]*ServiceHealth, len(h.stores))
	for name, store := range h.stores {
		if store == nil {
			services[name] = &ServiceHealth{Status: "not_configured"}
			continue
		}

		start := time.Now()
		err := store.Ping(ctx)
		service := &ServiceHealth{
			Status:       "healthy",
			Healthy:      err == nil,
			ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}
		if err != nil {
			service.Status = "unhealthy"
			service.Error = err.Error()
		}
		services[name] = service
	}
	return services
}

func checkSystem() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
