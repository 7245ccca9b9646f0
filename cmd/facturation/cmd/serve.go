package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/htconfort/facturation/internal/config"
	"github.com/htconfort/facturation/internal/server"
)

var (
	serverAddr     string
	serverDebug    bool
	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxPDFBytes    int
	usePlaceholder bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing the submission pipeline.

The API provides endpoints for:
  - POST /api/v1/invoices/validate - Validate an invoice, no network call
  - POST /api/v1/invoices/submit   - Submit an invoice + PDF to the webhook
  - GET  /health                   - Health check

Examples:
  # Start server on default port
  facturation serve

  # Start against the production webhook
  facturation serve --environment production --webhook-url https://hooks.example.com/invoice

  # Start in debug mode
  facturation serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
	serveCmd.Flags().IntVar(&maxPDFBytes, "max-pdf-bytes", 0, "PDF size threshold for placeholder substitution")
	serveCmd.Flags().BoolVar(&usePlaceholder, "placeholder", false, "Replace oversized PDFs with a diagnostic placeholder")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if environment != "" {
		cfg.Env = config.Environment(environment)
	}
	if webhookURL != "" {
		cfg.WebhookURL = webhookURL
	}
	if webhookTimeout > 0 {
		cfg.Timeout = webhookTimeout
	}

	srvConfig := &server.Config{
		Address:        serverAddr,
		WebhookURL:     cfg.Endpoint(),
		WebhookTimeout: cfg.Timeout,
		MaxPDFBytes:    maxPDFBytes,
		UsePlaceholder: usePlaceholder,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		Debug:          serverDebug,
	}

	srv := server.NewServer(srvConfig)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s (%s)\n", serverAddr, cfg.Env)
	fmt.Printf("Webhook endpoint: %s\n", cfg.Endpoint())

	return srv.Run()
}
