package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig(retries int) Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxRetries:      retries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 4,
	}
}

func TestClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	resp, err := New(fastConfig(0)).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestClient_Do_Retries5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := New(fastConfig(3)).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestClient_Do_DoesNotRetry4xxOr501(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusNotImplemented} {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(status)
		}))

		resp, err := New(fastConfig(3)).Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		server.Close()

		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "status %d", status)
	}
}

func TestClient_Backoff(t *testing.T) {
	c := New(Config{RetryWaitMin: 10 * time.Millisecond, RetryWaitMax: 25 * time.Millisecond})
	assert.Equal(t, 10*time.Millisecond, c.backoff(1))
	assert.Equal(t, 20*time.Millisecond, c.backoff(2))
	assert.Equal(t, 25*time.Millisecond, c.backoff(3))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("plain")))
}

func TestCircuitBreaker_TripsOnFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultCircuitBreakerConfig("test-trip")
	cfg.MinRequests = 3
	cfg.Timeout = time.Minute
	cb := NewCircuitBreakerClient(New(fastConfig(0)), cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, err := cb.Get(context.Background(), server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Get(context.Background(), server.URL)
	assert.True(t, IsCircuitOpen(err))
}

func TestCircuitBreaker_PassesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), DefaultCircuitBreakerConfig("test-ok"), testLogger())
	resp, err := cb.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"value":7}`},
		{name: "structured not found", status: http.StatusNotFound, body: `{"error":{"code":"NOT_FOUND","message":"gone"}}`, wantErr: true, wantStatus: http.StatusNotFound},
		{name: "structured bad request", status: http.StatusBadRequest, body: `{"error":{"code":"INVALID_INPUT","message":"bad page"}}`, wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "unstructured", status: http.StatusTeapot, body: `nope`, wantErr: true, wantStatus: http.StatusInternalServerError},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			_, _ = rec.WriteString(tt.body)

			var target struct {
				Value int `json:"value"`
			}
			err := DecodeJSON(rec.Result(), &target, "product-service")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, 7, target.Value)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, apperrors.HTTPStatus(err))
		})
	}
}
