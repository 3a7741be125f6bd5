// Package health provides liveness and readiness handlers for the read API.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Pinger defines the interface for checking a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Checker serves /health and /ready for a service and its dependencies.
type Checker struct {
	serviceName string
	version     string
	timeout     time.Duration

	mu     sync.RWMutex
	ready  bool
	checks map[string]Pinger
	now    func() time.Time
}

// NewChecker creates a new health checker. It starts not ready.
func NewChecker(serviceName, version string) *Checker {
	return &Checker{
		serviceName: serviceName,
		version:     version,
		timeout:     3 * time.Second,
		checks:      make(map[string]Pinger),
		now:         time.Now,
	}
}

// AddCheck registers a dependency probed by /ready.
func (c *Checker) AddCheck(name string, p Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = p
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service is ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// HandleHealth handles the /health endpoint - basic liveness check.
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   c.serviceName,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Version:   c.version,
	})
}

// HandleReady handles the /ready endpoint - probes every registered dependency.
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !c.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		c.mu.RLock()
		p := c.checks[name]
		c.mu.RUnlock()

		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			allHealthy = false
			checks[name] = fmt.Sprintf("error: %v", err)
		} else {
			checks[name] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  c.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	if allHealthy {
		response.Status = "ok"
	} else {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
