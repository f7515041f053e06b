package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
	"github.com/utafrali/catalogsearch/pkg/logger"
	"github.com/utafrali/catalogsearch/pkg/validator"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]int{"total": 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"total":2}}`, rec.Body.String())
}

func TestWriteBadParameter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteBadParameter(rec, "limit must be a number")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperrors.InvalidInput("product_code is required"), http.StatusBadRequest, "INVALID_INPUT"},
		{"wrapped not found", fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unavailable", fmt.Errorf("reindex: %w", apperrors.ErrServiceUnavail), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
			req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

			WriteError(rec, req, tt.err, logger.Discard())

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "corr-1", resp.Error.RequestID)
		})
	}
}

func TestWriteValidationError(t *testing.T) {
	type req struct {
		Code string `validate:"required"`
	}
	err := validator.Validate(req{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["Code"])

	rec = httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("decode request body: EOF"))
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
}
