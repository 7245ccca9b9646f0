package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/htconfort/facturation/internal/config"
	"github.com/htconfort/facturation/internal/delivery"
	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/submit"
	"github.com/htconfort/facturation/internal/wire"
)

var (
	submitDiagnostic  bool
	submitMaxPDFBytes int
	submitPlaceholder bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <invoice.json> <invoice.pdf>",
	Short: "Submit an invoice and its PDF to the automation webhook",
	Long: `Submit runs the full pipeline for one invoice: normalize monetary fields
from line items, validate the payload, encode it and deliver it over HTTP.

Wire encodings are tried in order (standard JSON, JSON with embedded binary,
multipart) until one succeeds.

Examples:
  # Submit against the configured webhook
  facturation submit invoice.json facture.pdf

  # Diagnostic run with the short timeout and a placeholder for oversized PDFs
  facturation submit invoice.json facture.pdf --diagnostic --placeholder --max-pdf-bytes 102400`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(&submitDiagnostic, "diagnostic", false, "Use the short diagnostic timeout")
	submitCmd.Flags().IntVar(&submitMaxPDFBytes, "max-pdf-bytes", 0, "PDF size threshold for placeholder substitution")
	submitCmd.Flags().BoolVar(&submitPlaceholder, "placeholder", false, "Replace oversized PDFs with a diagnostic placeholder")
}

// stderrObserver prints pipeline introspection when --verbose is set
type stderrObserver struct{}

func (stderrObserver) OnStateChange(invoiceNumber string, state submit.State) {
	printVerbose("[%s] state: %s\n", invoiceNumber, state)
}

func (stderrObserver) OnValidation(invoiceNumber string, violations []model.FieldViolation) {
	printVerbose("[%s] validation: %d violation(s)\n", invoiceNumber, len(violations))
}

func (stderrObserver) OnDeliveryAttempt(invoiceNumber string, encoding wire.Encoding, outcome *delivery.Outcome) {
	printVerbose("[%s] attempt %s: %s (HTTP %d)\n", invoiceNumber, encoding, outcome.Kind, outcome.StatusCode)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	raw, err := readInvoice(args[0])
	if err != nil {
		return err
	}

	pdf, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read PDF %s: %w", args[1], err)
	}

	client := newDeliveryClient()
	coordinator := submit.NewCoordinator(client,
		submit.WithObserver(stderrObserver{}),
		submit.WithPDFCheck(true),
		submit.WithWireOptions(wire.Options{
			MaxPDFBytes:    submitMaxPDFBytes,
			UsePlaceholder: submitPlaceholder,
		}),
	)

	printVerbose("Submitting %s to %s\n", raw.InvoiceNumber, client.Endpoint())

	result := coordinator.Submit(context.Background(), raw, pdf)

	out, _ := json.MarshalIndent(submitOutput(result), "", "  ")
	fmt.Println(string(out))

	if result.Status != submit.StatusSucceeded {
		return fmt.Errorf("submission %s", result.Status)
	}
	return nil
}

func readInvoice(path string) (*model.RawInvoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice %s: %w", path, err)
	}
	var raw model.RawInvoice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid invoice JSON in %s: %w", path, err)
	}
	return &raw, nil
}

func newDeliveryClient() *delivery.Client {
	cfg := config.Load()
	if environment != "" {
		cfg.Env = config.Environment(environment)
	}
	if webhookURL != "" {
		cfg.WebhookURL = webhookURL
		cfg.Env = config.EnvProduction
	}
	if webhookTimeout > 0 {
		cfg.Timeout = webhookTimeout
	}
	if submitDiagnostic {
		cfg.Timeout = delivery.DiagnosticTimeout
	}

	return delivery.New(cfg.Endpoint(), delivery.WithTimeout(cfg.Timeout))
}

func submitOutput(r *submit.Result) map[string]any {
	out := map[string]any{
		"status":         string(r.Status),
		"invoice_number": r.InvoiceNumber,
		"submission_id":  r.SubmissionID,
		"attempts":       r.Attempts,
	}
	if r.Attempts > 0 {
		out["encoding"] = r.Encoding.String()
	}
	if r.PlaceholderUsed {
		out["placeholder_used"] = true
	}
	if len(r.Violations) > 0 {
		out["violations"] = r.Violations
	}
	if r.Outcome != nil {
		out["outcome"] = r.Outcome
	}
	if len(r.Warnings) > 0 {
		out["warnings"] = r.Warnings
	}
	return out
}
