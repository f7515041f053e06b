package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productRequest struct {
	Code   string   `json:"product_code" validate:"required,max=64"`
	Price  float64  `json:"current_price" validate:"gte=0"`
	Parts  []string `json:"part_numbers" validate:"max=3"`
	Status string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(productRequest{Code: "BRK-001", Price: 10}))
}

func TestValidate_FieldErrors(t *testing.T) {
	err := Validate(productRequest{Price: -1, Parts: []string{"a", "b", "c", "d"}, Status: "gone"})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["product_code"])
	assert.Equal(t, "must be greater than or equal to 0", fields["current_price"])
	assert.Equal(t, "must be at most 3", fields["part_numbers"])
	assert.Equal(t, "must be one of: active inactive", fields["status"])
	assert.Contains(t, err.Error(), "field 'product_code' is required")
}

func TestValidate_NotBlank(t *testing.T) {
	type req struct {
		Code string `json:"product_code" validate:"notblank"`
	}
	assert.NoError(t, Validate(req{Code: "A-1"}))

	var valErr *ValidationError
	require.ErrorAs(t, Validate(req{Code: "   "}), &valErr)
	assert.Equal(t, "must not be blank", valErr.Fields()["product_code"])
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_code":"A-1","current_price":3}`))
	var dst productRequest
	require.NoError(t, DecodeAndValidate(r, &dst))
	assert.Equal(t, "A-1", dst.Code)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	err := DecodeAndValidate(r, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
