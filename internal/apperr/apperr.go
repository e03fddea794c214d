package apperr

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid field in a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level detail for a malformed or
// referentially-invalid submission. Nothing is written when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ConfigurationError means the ERP gateway address or credentials are
// missing. It is fatal to any reconciliation or forward attempt.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// GatewayError is a failed or non-success response from the external gateway.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: gateway error %d: %s", e.Op, e.StatusCode, e.Body)
}

// TransientNetworkError is a client-side submission or fetch failure. The
// affected record stays in its prior state and is retried on the next
// orchestrator trigger.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}
