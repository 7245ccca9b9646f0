package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose        bool
	webhookURL     string
	environment    string
	webhookTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "facturation",
	Short: "Submit retail invoices to the automation webhook",
	Long: `Facturation pushes finished invoices, together with their rendered PDF,
to the automation webhook that triggers downstream actions (email, storage, CRM).

The pipeline normalizes monetary fields from line items, validates the payload,
encodes it into one of several wire formats and delivers it with bounded
timeouts and an explicit encoding fallback chain.

Examples:
  # Validate an invoice file
  facturation validate invoice.json

  # Submit an invoice with its PDF
  facturation submit invoice.json facture.pdf --webhook-url https://hooks.example.com/invoice

  # Run the HTTP API
  facturation serve --address :8080`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&webhookURL, "webhook-url", "", "Automation webhook URL (env: WEBHOOK_URL)")
	rootCmd.PersistentFlags().StringVar(&environment, "environment", "", "Runtime environment: development or production (env: APP_ENV)")
	rootCmd.PersistentFlags().DurationVar(&webhookTimeout, "timeout", 0, "Delivery timeout per attempt (env: WEBHOOK_TIMEOUT)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if webhookURL == "" {
		webhookURL = os.Getenv("WEBHOOK_URL")
	}
	if environment == "" {
		environment = os.Getenv("APP_ENV")
	}
	if webhookTimeout == 0 {
		if raw := os.Getenv("WEBHOOK_TIMEOUT"); raw != "" {
			if d, err := time.ParseDuration(raw); err == nil {
				webhookTimeout = d
			}
		}
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
