package microsoft

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   error
	}{
		{
			name:       "unauthorised",
			statusCode: http.StatusUnauthorized,
			expected:   ErrUnauthorised,
		},
		{
			name:       "forbidden",
			statusCode: http.StatusForbidden,
			expected:   ErrForbidden,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			expected:   ErrNotFound,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			expected:   ErrRateLimited,
		},
		{
			name:       "bad request",
			statusCode: http.StatusBadRequest,
			expected:   ErrBadRequest,
		},
		{
			name:       "internal server error",
			statusCode: http.StatusInternalServerError,
			expected:   ErrServerError,
		},
		{
			name:       "service unavailable",
			statusCode: http.StatusServiceUnavailable,
			expected:   ErrServerError,
		},
		{
			name:       "success returns nil",
			statusCode: http.StatusOK,
			expected:   nil,
		},
		{
			name:       "created returns nil",
			statusCode: http.StatusCreated,
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapError(tt.statusCode)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGraphError_UnwrapsToSentinel(t *testing.T) {
	ge := &GraphError{StatusCode: http.StatusBadRequest, Code: "BadRequest", Message: "nope"}

	assert.True(t, errors.Is(ge, ErrBadRequest))
	assert.False(t, errors.Is(ge, ErrUnauthorised))
	assert.Contains(t, ge.Error(), "400")
	assert.Contains(t, ge.Error(), "BadRequest")
	assert.Contains(t, ge.Error(), "nope")
}

func TestGraphError_WithoutCode(t *testing.T) {
	ge := &GraphError{StatusCode: http.StatusInternalServerError}

	assert.Equal(t, "microsoft: graph request failed with status 500", ge.Error())
	assert.True(t, errors.Is(ge, ErrServerError))
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "structured graph error",
			statusCode:  http.StatusForbidden,
			body:        `{"error":{"code":"Forbidden","message":"Missing scope"}}`,
			wantCode:    "Forbidden",
			wantMessage: "Missing scope",
		},
		{
			name:       "unparsable body still carries status",
			statusCode: http.StatusBadGateway,
			body:       "<html>oops</html>",
		},
		{
			name:       "empty body",
			statusCode: http.StatusNotFound,
			body:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}

			ge := DecodeError(resp)

			require.NotNil(t, ge)
			assert.Equal(t, tt.statusCode, ge.StatusCode)
			assert.Equal(t, tt.wantCode, ge.Code)
			assert.Equal(t, tt.wantMessage, ge.Message)
		})
	}
}

func TestIsUnauthorised(t *testing.T) {
	assert.True(t, IsUnauthorised(http.StatusUnauthorized))
	assert.False(t, IsUnauthorised(http.StatusOK))
	assert.False(t, IsUnauthorised(http.StatusForbidden))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(http.StatusTooManyRequests))
	assert.False(t, IsRateLimited(http.StatusOK))
	assert.False(t, IsRateLimited(http.StatusUnauthorized))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(http.StatusNotFound))
	assert.False(t, IsNotFound(http.StatusOK))
	assert.False(t, IsNotFound(http.StatusUnauthorized))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{
			name:       "rate limited is retryable",
			statusCode: http.StatusTooManyRequests,
			expected:   true,
		},
		{
			name:       "service unavailable is retryable",
			statusCode: http.StatusServiceUnavailable,
			expected:   true,
		},
		{
			name:       "gateway timeout is retryable",
			statusCode: http.StatusGatewayTimeout,
			expected:   true,
		},
		{
			name:       "unauthorised is not retryable",
			statusCode: http.StatusUnauthorized,
			expected:   false,
		},
		{
			name:       "not found is not retryable",
			statusCode: http.StatusNotFound,
			expected:   false,
		},
		{
			name:       "internal server error is not retryable",
			statusCode: http.StatusInternalServerError,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryable(tt.statusCode)
			assert.Equal(t, tt.expected, result)
		})
	}
}
