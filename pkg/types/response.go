// Package types holds the JSON envelopes every API response is wrapped in.
package types

// RequestIDHeader carries the request id set by the request id middleware and
// echoed in error bodies.
const RequestIDHeader = "X-Request-Id"

// SuccessEnvelope wraps scheme, invoice, notification and report payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public view of a pkg/errors error. Details holds the
// validation messages of a rejected scheme or invoice.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
