package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	withInner := &AppError{Code: "INTERNAL_ERROR", Message: "build failed", Err: fmt.Errorf("catalog down")}
	assert.Equal(t, "INTERNAL_ERROR: build failed: catalog down", withInner.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "product X not found"}
	assert.Equal(t, "NOT_FOUND: product X not found", bare.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(NotFound("product", "BRK-001"), ErrNotFound))
	assert.True(t, errors.Is(InvalidInput("product_code is required"), ErrInvalidInput))
	assert.True(t, errors.Is(Conflict("reindex running"), ErrConflict))
	assert.Nil(t, (&AppError{Code: "TEST"}).Unwrap())
}

func TestServiceUnavailable_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := ServiceUnavailable("catalog source unavailable", cause)

	assert.True(t, errors.Is(err, ErrServiceUnavail))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)

	assert.True(t, errors.Is(ServiceUnavailable("down", nil), ErrServiceUnavail))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("index product: %w", NotFound("product", "x")), http.StatusNotFound},
		{"sentinel not found", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel invalid", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
