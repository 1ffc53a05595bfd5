package handler

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

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

func TestHealth_Handle(t *testing.T) {
	h := NewHealth(&stubPinger{}, "development", "1.0.0")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "development", body["environment"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHealth_Handle_DatabaseUnreachable(t *testing.T) {
	h := NewHealth(&stubPinger{err: errors.New("connection refused")}, "production", "1.0.0")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DEGRADED", body["status"])
}

func TestHealth_Handle_NoDatabase(t *testing.T) {
	h := NewHealth(nil, "development", "dev")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
