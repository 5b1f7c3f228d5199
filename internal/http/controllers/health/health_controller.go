// Package health contiene los controllers de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
)

// Check es una dependencia verificable (store, directorio, redis).
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Response es el body de /readyz.
type Response struct {
	Status     string            `json:"status"` // ready | unavailable
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	checks  []Check
	version string
	timeout time.Duration
}

// NewHealthController crea el controller. timeout <= 0 usa 2s por check.
func NewHealthController(version string, timeout time.Duration, checks ...Check) *HealthController {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return &HealthController{checks: checks, version: version, timeout: timeout}
}

// Healthz maneja GET /healthz: el proceso está vivo.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz: todas las dependencias responden.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := Response{
		Status:     "ready",
		Version:    c.version,
		Components: make(map[string]string, len(c.checks)),
		Timestamp:  time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, chk := range c.checks {
		wg.Add(1)
		go func(chk Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			status := "ok"
			if err := chk.Ping(cctx); err != nil {
				status = "error"
				log.Warn("readiness check failed", logger.Component(chk.Name), logger.Err(err))
			}
			mu.Lock()
			resp.Components[chk.Name] = status
			if status != "ok" {
				resp.Status = "unavailable"
			}
			mu.Unlock()
		}(chk)
	}
	wg.Wait()

	code := http.StatusOK
	if resp.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
