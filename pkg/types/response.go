package types

// SuccessEnvelope wraps every 2xx body served to the storefront.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a typed error. RequestID mirrors the
// X-Request-Id response header so support can find the matching log entry.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
