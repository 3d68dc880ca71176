// Package health implements Kubernetes-style liveness and readiness probes.
//
// Checks are registered up front and then executed together by a single
// scheduler goroutine at a fixed interval. A check flips to unhealthy only
// after failing failureThreshold consecutive runs, which keeps transient
// hiccups from flapping the probe endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const failureThreshold = 3

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// probe is one registered check plus its rolling state. State fields are
// written only by the scheduler goroutine and read by the HTTP handlers under
// the Health mutex.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy bool
	fails   int
	lastErr error
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr = err

	if err != nil {
		p.fails++
		if p.fails >= failureThreshold {
			p.healthy = false
		}
		return
	}
	p.fails = 0
	p.healthy = true
}

// Health runs registered probes and serves the /livez and /readyz endpoints.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health with no probes, in the not-ready state. Call
// SetReady(true) once startup has finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness probe: is the process itself still
// functioning (goroutine leaks, deadlocks).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a readiness probe: can the service take traffic
// (database reachable, payment gateway reachable).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	// Probes start healthy so registration before Start does not fail the
	// first readiness poll.
	return &probe{name: name, timeout: timeout, check: check, healthy: true}
}

// Start launches the scheduler goroutine. All probes run once immediately and
// then every interval until Stop or ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx)
			}
		}
	}()
}

func (h *Health) runAll(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.liveness {
		p.run(ctx)
	}
	for _, p := range h.readiness {
		p.run(ctx)
	}
}

// Stop cancels the scheduler goroutine. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. It is set false during graceful
// shutdown so load balancers drain the instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently healthy.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.readiness {
		if !p.healthy {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 when all liveness probes pass, 503
// otherwise. The body lists every probe with "ok" or its last error, so
// operators see what is registered, not just what is broken.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks, healthy := snapshot(h.liveness)
	h.mu.RUnlock()

	respond(w, checks, healthy)
}

// ReadyEndpoint serves /readyz: 200 when the service is marked ready and all
// readiness probes pass, 503 otherwise. Like /livez, the body lists every
// probe's current state.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks, healthy := snapshot(h.readiness)
	h.mu.RUnlock()

	if !h.ready.Load() {
		checks["_readiness"] = "service is not ready"
		healthy = false
	}
	respond(w, checks, healthy)
}

// snapshot must be called with h.mu held.
func snapshot(probes []*probe) (checks map[string]string, healthy bool) {
	checks = make(map[string]string, len(probes))
	healthy = true
	for _, p := range probes {
		switch {
		case p.healthy:
			checks[p.name] = "ok"
		case p.lastErr != nil:
			checks[p.name] = p.lastErr.Error()
			healthy = false
		default:
			checks[p.name] = "check is unhealthy"
			healthy = false
		}
	}
	return checks, healthy
}

func respond(w http.ResponseWriter, checks map[string]string, healthy bool) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
