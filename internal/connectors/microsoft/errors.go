package microsoft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error types for Microsoft Graph API responses.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("microsoft: unauthorised")

	// ErrForbidden indicates the user lacks permission for the requested resource.
	ErrForbidden = errors.New("microsoft: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("microsoft: not found")

	// ErrRateLimited indicates the request was throttled by Microsoft Graph.
	ErrRateLimited = errors.New("microsoft: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("microsoft: bad request")

	// ErrServerError indicates a server-side error from Microsoft Graph.
	ErrServerError = errors.New("microsoft: server error")
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// GraphError carries the structured error body Microsoft Graph returns
// alongside a non-2xx status. Code and Message come from the service; the
// status code maps onto one of the sentinel errors above via Unwrap.
type GraphError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("microsoft: graph request failed with status %d: %s: %s",
			e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("microsoft: graph request failed with status %d", e.StatusCode)
}

// Unwrap maps the status code onto the package sentinel errors so callers can
// use errors.Is without inspecting status codes.
func (e *GraphError) Unwrap() error {
	return WrapError(e.StatusCode)
}

// graphErrorBody is the wire shape of a Graph error response.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeError reads a non-2xx Graph response body into a GraphError. Parsing
// is best-effort: an unparsable body still yields an error carrying the
// status code.
func DecodeError(resp *http.Response) *GraphError {
	ge := &GraphError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return ge
	}

	var parsed graphErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		ge.Code = parsed.Error.Code
		ge.Message = parsed.Error.Message
	}
	return ge
}

// IsUnauthorised checks if the status code indicates an authentication failure.
func IsUnauthorised(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// IsRateLimited checks if the status code indicates rate limiting.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsNotFound checks if the status code indicates a missing resource.
func IsNotFound(statusCode int) bool {
	return statusCode == http.StatusNotFound
}

// IsRetryable checks if the error is potentially transient and can be retried.
func IsRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
