package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/htconfort/facturation/internal/delivery"
	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/normalize"
	"github.com/htconfort/facturation/internal/submit"
	"github.com/htconfort/facturation/internal/validate"
	"github.com/htconfort/facturation/internal/wire"
)

// Config holds server configuration
type Config struct {
	Address        string
	WebhookURL     string
	WebhookTimeout time.Duration
	MaxPDFBytes    int
	UsePlaceholder bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Debug          bool
}

// Server exposes the submission pipeline over HTTP
type Server struct {
	config      *Config
	router      *gin.Engine
	coordinator *submit.Coordinator
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	var clientOpts []delivery.Option
	if config.WebhookTimeout > 0 {
		clientOpts = append(clientOpts, delivery.WithTimeout(config.WebhookTimeout))
	}
	client := delivery.New(config.WebhookURL, clientOpts...)

	coordinator := submit.NewCoordinator(client,
		submit.WithWireOptions(wire.Options{
			MaxPDFBytes:    config.MaxPDFBytes,
			UsePlaceholder: config.UsePlaceholder,
		}),
		submit.WithPDFCheck(true),
	)

	s := &Server{
		config:      config,
		router:      router,
		coordinator: coordinator,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices/validate", s.handleValidate)
		v1.POST("/invoices/submit", s.handleSubmit)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleValidate(c *gin.Context) {
	var raw model.RawInvoice
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice body", Details: err.Error()})
		return
	}

	payload := normalize.Normalize(&raw)
	_, violations := validate.Validate(payload)

	c.JSON(http.StatusOK, ValidationResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

func (s *Server) handleSubmit(c *gin.Context) {
	invoicePart := c.PostForm("invoice")
	if invoicePart == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing invoice form field"})
		return
	}

	var raw model.RawInvoice
	if err := json.Unmarshal([]byte(invoicePart), &raw); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing pdf file part", Details: err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to open pdf part", Details: err.Error()})
		return
	}
	defer file.Close()
	pdf, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read pdf part", Details: err.Error()})
		return
	}

	result := s.coordinator.Submit(c.Request.Context(), &raw, pdf)

	resp := SubmitResponse{
		Status:          string(result.Status),
		SubmissionID:    result.SubmissionID,
		InvoiceNumber:   result.InvoiceNumber,
		Attempts:        result.Attempts,
		PlaceholderUsed: result.PlaceholderUsed,
		Shared:          result.Shared,
		Outcome:         result.Outcome,
		Violations:      result.Violations,
		Warnings:        result.Warnings,
	}
	if result.Attempts > 0 {
		resp.Encoding = result.Encoding.String()
	}

	switch result.Status {
	case submit.StatusSucceeded:
		c.JSON(http.StatusOK, resp)
	case submit.StatusValidationFailed:
		c.JSON(http.StatusUnprocessableEntity, resp)
	default:
		c.JSON(http.StatusBadGateway, resp)
	}
}
