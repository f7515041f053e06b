package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("index", func(context.Context) error { return ErrNotReady })

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.Register("index", func(context.Context) error { return nil })
	h.Register("kafka", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["index"].Status)
	assert.Equal(t, StatusUp, resp.Checks["kafka"].Status)
}

func TestReadinessHandler_OneDown(t *testing.T) {
	h := NewHandler()
	h.Register("index", func(context.Context) error { return ErrNotReady })
	h.Register("kafka", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "not ready", resp.Checks["index"].Error)
	assert.Equal(t, StatusUp, resp.Checks["kafka"].Status)
}

func TestRegister_ReplacesAndSorts(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(context.Context) error { return fmt.Errorf("down") })
	h.Register("index", func(context.Context) error { return nil })
	h.Register("redis", func(context.Context) error { return nil })

	assert.Equal(t, []string{"index", "redis"}, h.Names())
	assert.Equal(t, StatusUp, h.Check(context.Background()).Status)
}

func TestCheck_NoCheckersIsUp(t *testing.T) {
	resp := NewHandler().Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}
