// Package headers defines HTTP header constants used between the SDK and the
// BehavioGuard backend. This is the single source of truth for header names.
package headers

const (
	// RequestID is the header for request correlation.
	// The SDK generates a fresh UUID per request.
	RequestID = "X-BehavioGuard-Request-Id"

	// DeviceID identifies the installing device across sessions. The backend
	// feeds it into device-trust scoring alongside the behavioral payload.
	DeviceID = "X-BehavioGuard-Device-Id"
)
