package server

import (
	"github.com/htconfort/facturation/internal/delivery"
	"github.com/htconfort/facturation/internal/model"
)

// SubmitResponse is the response for the submit endpoint
type SubmitResponse struct {
	Status          string                 `json:"status"`
	SubmissionID    string                 `json:"submission_id,omitempty"`
	InvoiceNumber   string                 `json:"invoice_number"`
	Attempts        int                    `json:"attempts"`
	Encoding        string                 `json:"encoding,omitempty"`
	PlaceholderUsed bool                   `json:"placeholder_used,omitempty"`
	Shared          bool                   `json:"shared,omitempty"`
	Outcome         *delivery.Outcome      `json:"outcome,omitempty"`
	Violations      []model.FieldViolation `json:"violations,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
}

// ValidationResponse is the response for the validate endpoint
type ValidationResponse struct {
	Valid      bool                   `json:"valid"`
	Violations []model.FieldViolation `json:"violations,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
