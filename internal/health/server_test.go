package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealth(t *testing.T) {
	c := NewChecker("match-predictor", "1.2.3")
	rec := httptest.NewRecorder()
	c.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHandleReady(t *testing.T) {
	c := NewChecker("match-predictor", "dev")
	c.AddCheck("database", pingerFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	c.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until marked")

	c.SetReady(true)
	rec = httptest.NewRecorder()
	c.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	c.AddCheck("redis", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = httptest.NewRecorder()
	c.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "error: connection refused", resp.Checks["redis"])
}
