package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeBody(t *testing.T, w *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var resp probeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth_NotReadyByDefault(t *testing.T) {
	h := New()

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := probeBody(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
	assert.False(t, h.IsReady())
}

func TestHealth_ReadyAfterSetReady(t *testing.T) {
	h := New()
	h.SetReady(true)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", probeBody(t, w).Status)
	assert.True(t, h.IsReady())
}

func TestHealth_LiveEndpointListsChecks(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := probeBody(t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["noop"])
}

func TestHealth_ReadyEndpointListsChecks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error { return nil })
	h.AddReadinessCheck("gateway", time.Second, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := probeBody(t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "ok", resp.Checks["gateway"])
}

func TestProbe_FailureThreshold(t *testing.T) {
	p := newProbe("flaky", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	ctx := context.Background()

	// Stays healthy until the threshold is reached.
	p.run(ctx)
	p.run(ctx)
	assert.True(t, p.healthy)

	p.run(ctx)
	assert.False(t, p.healthy)
	assert.EqualError(t, p.lastErr, "down")
}

func TestProbe_RecoversOnFirstSuccess(t *testing.T) {
	fail := true
	p := newProbe("recovering", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	ctx := context.Background()
	for range failureThreshold {
		p.run(ctx)
	}
	require.False(t, p.healthy)

	fail = false
	p.run(ctx)
	assert.True(t, p.healthy)
	assert.Zero(t, p.fails)
}

func TestHealth_UnhealthyReadinessBlocksReady(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	// Force the probe past its threshold without the scheduler.
	h.mu.Lock()
	for _, p := range h.readiness {
		for range failureThreshold {
			p.run(context.Background())
		}
	}
	h.mu.Unlock()

	assert.False(t, h.IsReady())

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := probeBody(t, w)
	assert.Equal(t, "connection refused", resp.Checks["db"])
}

func TestHealth_SchedulerRunsChecks(t *testing.T) {
	h := New()
	ran := make(chan struct{}, 1)
	h.AddLivenessCheck("tick", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.Start(ctx, time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("check was not run by the scheduler")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestHTTPCheck(t *testing.T) {
	serve := func(status int) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	ctx := context.Background()

	ok := serve(http.StatusOK)
	assert.NoError(t, HTTPCheck(ok.Client(), ok.URL)(ctx))

	// A non-2xx answer still proves the upstream is reachable.
	denied := serve(http.StatusUnauthorized)
	assert.NoError(t, HTTPCheck(denied.Client(), denied.URL)(ctx))

	broken := serve(http.StatusBadGateway)
	assert.Error(t, HTTPCheck(broken.Client(), broken.URL)(ctx))

	down := serve(http.StatusOK)
	down.Close()
	assert.Error(t, HTTPCheck(down.Client(), down.URL)(ctx))
}
