package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		code   string
	}{
		{"unauthorized", Unauthorized("login"), http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden, CodeForbidden},
		{"not found", NotFound("gone"), http.StatusNotFound, CodeNotFound},
		{"validation", Validation("bad", nil), http.StatusUnprocessableEntity, CodeValidation},
		{"conflict", Conflict(CodeGenerationInProgress, "busy"), http.StatusConflict, CodeGenerationInProgress},
		{"rate limited", TooManyRequests("slow down"), http.StatusTooManyRequests, CodeRateLimited},
		{"internal", Internal(errors.New("db down")), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	cause := errors.New("db down")
	wrapped := fmt.Errorf("send message: %w", Internal(cause))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.ErrorIs(t, wrapped, cause)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_MessageFallbacks(t *testing.T) {
	assert.Equal(t, "Thread not found.", NotFound("Thread not found.").Error())
	assert.Equal(t, "internal_error: db down", Internal(errors.New("db down")).Error())
	assert.Equal(t, "forbidden", New(http.StatusForbidden, CodeForbidden, "", nil).Error())
}
