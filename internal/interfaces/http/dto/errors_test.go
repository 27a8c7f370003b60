package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"validation", ErrCodeValidation, http.StatusBadRequest},
		{"internal", ErrCodeInternal, http.StatusInternalServerError},
		{"invalid json", ErrCodeInvalidJSON, http.StatusBadRequest},
		{"unknown code falls back to 500", "ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"domain not found", "NOT_FOUND", ErrCodeNotFound},
		{"domain validation", "VALIDATION_ERROR", ErrCodeValidation},
		{"domain internal", "INTERNAL_ERROR", ErrCodeInternal},
		{"already normalized", ErrCodeNotFound, ErrCodeNotFound},
		{"unknown passes through", "SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeErrorCode(tt.code))
		})
	}
}

func TestResponses(t *testing.T) {
	t.Run("success response", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]string{"k": "v"})
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
	})

	t.Run("error response", func(t *testing.T) {
		resp := NewErrorResponse(ErrCodeNotFound, "missing")
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "missing", resp.Error.Message)
	})

	t.Run("list response carries meta", func(t *testing.T) {
		resp := NewListResponse([]int{1, 2}, 2, 10, 0)
		assert.True(t, resp.Success)
		assert.Equal(t, 2, resp.Meta.Count)
		assert.Equal(t, 10, resp.Meta.Limit)
	})
}
