// Package health exposes liveness and readiness probes for the
// tankwar server, for orchestrators and load balancers.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Check is one component's health probe
type Check interface {
	// Name returns the unique name of this check
	Name() string
	// Check returns an error when the component is unhealthy
	Check(ctx context.Context) error
}

// Status is the aggregated health report
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is one component's line in the report
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker runs registered health checks
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Add registers a check, replacing any with the same name
func (c *Checker) Add(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// Remove drops a check by name
func (c *Checker) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Run executes every check. The report is healthy only when all
// checks pass.
func (c *Checker) Run(ctx context.Context) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
		} else {
			status.Checks[name] = ComponentHealth{Status: "healthy"}
		}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve requests
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check and answers 503 on any failure
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.Run(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// SimulationCheck verifies the game loop is running
type SimulationCheck struct {
	running func() bool
}

// NewSimulationCheck probes the match loop through the given
// callback.
func NewSimulationCheck(running func() bool) *SimulationCheck {
	return &SimulationCheck{running: running}
}

func (s *SimulationCheck) Name() string {
	return "simulation"
}

func (s *SimulationCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("game loop is not running")
	}
	return nil
}

// TransportCheck verifies the websocket listener is up
type TransportCheck struct {
	listenerAddr func() string
}

// NewTransportCheck probes the listener through the given callback
func NewTransportCheck(listenerAddr func() string) *TransportCheck {
	return &TransportCheck{listenerAddr: listenerAddr}
}

func (t *TransportCheck) Name() string {
	return "transport"
}

func (t *TransportCheck) Check(ctx context.Context) error {
	if t.listenerAddr() == "" {
		return fmt.Errorf("listener is not active")
	}
	return nil
}

// MemoryCheck flags the process when heap use crosses a limit
type MemoryCheck struct {
	maxMemoryMB int64
	usageMB     func() int64
}

// NewMemoryCheck probes heap use through the given callback
func NewMemoryCheck(maxMemoryMB int64, usageMB func() int64) *MemoryCheck {
	return &MemoryCheck{maxMemoryMB: maxMemoryMB, usageMB: usageMB}
}

func (m *MemoryCheck) Name() string {
	return "memory"
}

func (m *MemoryCheck) Check(ctx context.Context) error {
	current := m.usageMB()
	if current > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMemoryMB)
	}
	return nil
}
