package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// ErrSessionExpired signals that the current credentials are irrecoverably
// invalid: a refresh failed, or a request still got 401 after its single
// refresh-triggered retry. The token manager has already cleared local state
// when this is returned; the caller must route the user back to login.
var ErrSessionExpired = errors.New("sdk: session expired")

// APIError captures a structured server-reported failure (non-2xx response).
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("sdk: api error (%d): %s", e.Status, msg)
}

// TransportErrorKind classifies failures that happened before a response arrived.
type TransportErrorKind string

const (
	// TransportErrorKindTimeout covers request deadlines and network timeouts.
	TransportErrorKindTimeout TransportErrorKind = "timeout"
	// TransportErrorKindNetwork covers connection and DNS failures.
	TransportErrorKindNetwork TransportErrorKind = "network"
)

// TransportError wraps network-level failures. These are transient and
// user-retryable; the SDK never retries them automatically.
type TransportError struct {
	Kind    TransportErrorKind
	Message string
	Cause   error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("sdk: %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e TransportError) Unwrap() error { return e.Cause }

// ValidationError reports a local, pre-network input failure. It is returned
// before any request is issued and is recoverable by correcting the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("sdk: invalid %s: %s", e.Field, e.Reason)
}

// ChallengeError reports a failed step-up verification attempt. The pending
// session remains valid; the user may retry until attempts run out.
type ChallengeError struct {
	Reason       string
	AttemptsLeft int
}

func (e ChallengeError) Error() string {
	return fmt.Sprintf("sdk: challenge verification failed: %s (%d attempts left)", e.Reason, e.AttemptsLeft)
}

// IsSessionExpired reports whether err indicates terminally invalid credentials.
func IsSessionExpired(err error) bool { return errors.Is(err, ErrSessionExpired) }

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// AsAPIError extracts an *APIError from err when present.
func AsAPIError(err error, target **APIError) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		*target = apiErr
		return true
	}
	return false
}

func classifyTransportErrorKind(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportErrorKindTimeout
	}
	return TransportErrorKindNetwork
}

// decodeAPIError reads a non-2xx response body. The backend reports errors as
// {"detail": "..."} (or {"detail": [...]} for field validation); {"error": "..."}
// is accepted for forward compatibility.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("X-Request-Id"),
	}
	data, _ := io.ReadAll(resp.Body)
	if len(data) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
		Code   string          `json:"code"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Code = payload.Code
	switch {
	case len(payload.Detail) > 0:
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Message = detail
		} else {
			apiErr.Message = strings.TrimSpace(string(payload.Detail))
		}
	case payload.Error != "":
		apiErr.Message = payload.Error
	default:
		apiErr.Message = resp.Status
	}
	return apiErr
}
