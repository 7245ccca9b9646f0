// Package submit orchestrates one invoice submission end to end:
// normalize, validate, transform, deliver. It guarantees at most one
// in-flight submission per invoice, with concurrent callers joining the
// flight already underway instead of triggering duplicate network calls.
package submit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/htconfort/facturation/internal/delivery"
	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/normalize"
	"github.com/htconfort/facturation/internal/pdfinfo"
	"github.com/htconfort/facturation/internal/validate"
	"github.com/htconfort/facturation/internal/wire"
)

// State is a phase of the submission state machine
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateTransforming State = "transforming"
	StateSending      State = "sending"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Status is the caller-visible verdict of a submission
type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusValidationFailed Status = "validation_failed"
	StatusDeliveryFailed   Status = "delivery_failed"
)

// Observer receives pipeline introspection events. Implementations are
// external collaborators; the pipeline calls them but never depends on them.
type Observer interface {
	OnStateChange(invoiceNumber string, state State)
	OnValidation(invoiceNumber string, violations []model.FieldViolation)
	OnDeliveryAttempt(invoiceNumber string, encoding wire.Encoding, outcome *delivery.Outcome)
}

// Result folds a whole submission into one caller-visible value. Failures are
// carried as typed errors in Err, never panics.
type Result struct {
	Status        Status
	SubmissionID  string
	InvoiceNumber string

	Violations []model.FieldViolation

	Outcome         *delivery.Outcome
	Attempts        int
	Encoding        wire.Encoding
	PlaceholderUsed bool

	Warnings []string

	// Shared marks a caller that joined a submission already in flight
	Shared bool

	Err error
}

// Coordinator drives the pipeline and holds the single-flight table
type Coordinator struct {
	client    *delivery.Client
	encodings []wire.Encoding
	wireOpts  wire.Options
	observer  Observer
	checkPDF  bool

	mu       sync.Mutex
	inflight map[string]*flight
}

type flight struct {
	done   chan struct{}
	result *Result
}

// CoordinatorOption configures the coordinator
type CoordinatorOption func(*Coordinator)

// WithEncodings sets the ordered fallback chain of wire encodings
func WithEncodings(encodings ...wire.Encoding) CoordinatorOption {
	return func(c *Coordinator) {
		c.encodings = encodings
	}
}

// WithObserver installs a pipeline observer
func WithObserver(obs Observer) CoordinatorOption {
	return func(c *Coordinator) {
		c.observer = obs
	}
}

// WithWireOptions sets envelope construction options
func WithWireOptions(opts wire.Options) CoordinatorOption {
	return func(c *Coordinator) {
		c.wireOpts = opts
	}
}

// WithPDFCheck toggles the structural pre-check of the rendered PDF.
// Findings surface as warnings on the result.
func WithPDFCheck(enabled bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.checkPDF = enabled
	}
}

// NewCoordinator creates a coordinator bound to a delivery client
func NewCoordinator(client *delivery.Client, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		client: client,
		encodings: []wire.Encoding{
			wire.EncodingStandardJSON,
			wire.EncodingEmbeddedBinary,
			wire.EncodingMultipart,
		},
		inflight: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs the full pipeline for one invoice. Concurrent calls for the
// same invoice number receive the result of the flight already in progress.
func (c *Coordinator) Submit(ctx context.Context, raw *model.RawInvoice, pdf []byte) *Result {
	key := strings.TrimSpace(raw.InvoiceNumber)

	c.mu.Lock()
	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			shared := *f.result
			shared.Shared = true
			return &shared
		case <-ctx.Done():
			return &Result{
				Status:        StatusDeliveryFailed,
				InvoiceNumber: key,
				Shared:        true,
				Err:           ctx.Err(),
			}
		}
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	// The lock must clear in every terminal path, panics included, or the
	// invoice would be permanently unsubmittable.
	defer func() {
		if f.result == nil {
			f.result = &Result{
				Status:        StatusDeliveryFailed,
				InvoiceNumber: key,
				Err:           fmt.Errorf("submission aborted"),
			}
		}
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
		close(f.done)
	}()

	f.result = c.run(ctx, key, raw, pdf)
	return f.result
}

func (c *Coordinator) run(ctx context.Context, key string, raw *model.RawInvoice, pdf []byte) *Result {
	result := &Result{
		SubmissionID:  uuid.NewString(),
		InvoiceNumber: key,
	}

	c.observeState(key, StateValidating)
	payload := normalize.Normalize(raw)
	validated, violations := validate.Validate(payload)
	if c.observer != nil {
		c.observer.OnValidation(key, violations)
	}
	if len(violations) > 0 {
		result.Status = StatusValidationFailed
		result.Violations = violations
		result.Err = &model.ValidationError{Violations: violations}
		c.observeState(key, StateFailed)
		return result
	}

	if c.checkPDF {
		if _, err := pdfinfo.Inspect(pdf); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	var lastErr error
	for _, enc := range c.encodings {
		c.observeState(key, StateTransforming)
		env, err := wire.Build(validated, pdf, enc, c.wireOpts)
		if err != nil {
			lastErr = err
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("encoding %s skipped: %v", enc, err))
			continue
		}
		result.PlaceholderUsed = env.PlaceholderUsed

		c.observeState(key, StateSending)
		outcome := c.client.Deliver(ctx, env)
		result.Attempts++
		result.Outcome = outcome
		result.Encoding = enc
		if c.observer != nil {
			c.observer.OnDeliveryAttempt(key, enc, outcome)
		}

		if outcome.Succeeded() {
			result.Status = StatusSucceeded
			c.observeState(key, StateSucceeded)
			return result
		}
		lastErr = outcomeError(enc, outcome)

		if ctx.Err() != nil {
			break
		}
	}

	result.Status = StatusDeliveryFailed
	result.Err = &model.EncodingExhaustedError{Attempts: result.Attempts, Last: lastErr}
	c.observeState(key, StateFailed)
	return result
}

func (c *Coordinator) observeState(key string, state State) {
	if c.observer != nil {
		c.observer.OnStateChange(key, state)
	}
}

func outcomeError(enc wire.Encoding, o *delivery.Outcome) error {
	msg := o.Message
	if msg == "" {
		msg = o.RawBody
	}
	return &model.DeliveryError{
		Encoding:   enc.String(),
		StatusCode: o.StatusCode,
		Message:    msg,
	}
}
