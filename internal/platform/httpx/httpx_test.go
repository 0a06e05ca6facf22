package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bovine-monitoring/internal/domain/domainerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponder_Error_Categories(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"invalid", domainerr.Invalid("name is required"), http.StatusBadRequest, "name is required"},
		{"unauthorized", domainerr.Unauthorized("not authenticated"), http.StatusUnauthorized, "not authenticated"},
		{"not found", fmt.Errorf("farms: %w", domainerr.NotFound("farm not found")), http.StatusNotFound, "farm not found"},
		{"validation", domainerr.Validation("validation error"), http.StatusUnprocessableEntity, "validation error"},
		{"bare sentinel", domainerr.ErrNotFound, http.StatusNotFound, "Not Found"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			Responder{}.Error(rec, req, tc.err)

			require.Equal(t, tc.status, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tc.status, body.StatusCode)
			assert.Equal(t, tc.detail, body.Detail)
			assert.Empty(t, body.Message)
		})
	}
}

func TestResponder_Error_DebugIncludesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	Responder{Debug: true}.Error(rec, req, errors.New("supabase API error 503"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":true,"detail":"internal server error","status_code":500,"message":"supabase API error 503"}`, rec.Body.String())
}

func TestResponder_Error_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)

	Responder{}.Error(rec, req, domainerr.Validation("validation error", domainerr.FieldError{Field: "tag", Message: "is required"}))

	assert.JSONEq(t, `{"error":true,"detail":"validation error","status_code":422,"errors":[{"field":"tag","message":"is required"}]}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any

	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad")), &dst)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "invalid json", domainerr.DetailOf(err))

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dst)
	require.Error(t, err)
	assert.Equal(t, "request body is required", domainerr.DetailOf(err))

	require.NoError(t, DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &dst))
	assert.Equal(t, float64(1), dst["a"])
}
