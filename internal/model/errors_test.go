package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htconfort/facturation/internal/model"
)

func TestValidationError(t *testing.T) {
	err := &model.ValidationError{
		Violations: []model.FieldViolation{
			{Field: "client_email", Message: "client email is required"},
			{Field: "payment_method", Message: "payment method is required"},
		},
	}

	require.Contains(t, err.Error(), "client_email")
	require.Contains(t, err.Error(), "payment_method")
	require.Contains(t, err.Error(), "validation failed")
}

func TestDeliveryError(t *testing.T) {
	err := &model.DeliveryError{
		Encoding:   "standard_json",
		StatusCode: 500,
		Message:    "internal error",
	}

	require.Contains(t, err.Error(), "standard_json")
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "internal error")
}

func TestDeliveryError_NoStatus(t *testing.T) {
	err := &model.DeliveryError{
		Encoding: "multipart",
		Message:  "connection refused",
	}

	assert.NotContains(t, err.Error(), "HTTP")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDeliveryError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := &model.DeliveryError{Encoding: "standard_json", Message: "boom", Cause: cause}

	require.ErrorIs(t, err, cause)
}

func TestEncodingExhaustedError(t *testing.T) {
	last := &model.DeliveryError{Encoding: "multipart", StatusCode: 502, Message: "bad gateway"}
	err := &model.EncodingExhaustedError{Attempts: 3, Last: last}

	require.Contains(t, err.Error(), "3")
	require.Contains(t, err.Error(), "bad gateway")

	var derr *model.DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 502, derr.StatusCode)
}
