package model

import (
	"fmt"
	"strings"
)

// FieldViolation is a single schema rule failure, addressed to a field so the
// UI can surface every problem at once.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found in one pass
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invoice validation failed: %s", strings.Join(msgs, "; "))
}

// DeliveryError represents a failed HTTP exchange with the webhook
type DeliveryError struct {
	Encoding   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery failed [%s]: HTTP %d: %s", e.Encoding, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("delivery failed [%s]: %s", e.Encoding, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// EncodingExhaustedError means every configured wire encoding was attempted
// and each one failed. Last holds the final attempt's error.
type EncodingExhaustedError struct {
	Attempts int
	Last     error
}

func (e *EncodingExhaustedError) Error() string {
	return fmt.Sprintf("all %d wire encodings exhausted: %v", e.Attempts, e.Last)
}

func (e *EncodingExhaustedError) Unwrap() error {
	return e.Last
}
