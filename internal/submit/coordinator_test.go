package submit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htconfort/facturation/internal/delivery"
	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/submit"
	"github.com/htconfort/facturation/internal/wire"
)

var samplePDF = []byte("%PDF-1.4\nfake invoice document\n%%EOF")

func sampleInvoice(number string) *model.RawInvoice {
	return &model.RawInvoice{
		InvoiceNumber:    number,
		InvoiceDate:      "2025-07-20",
		ClientName:       "Marie Dupont",
		ClientEmail:      "marie.dupont@example.com",
		ClientPhone:      "0612345678",
		ClientAddress:    "12 rue des Lilas",
		ClientPostalCode: "75011",
		ClientCity:       "Paris",
		TaxRate:          20,
		Items: []model.RawLineItem{
			{Name: "Matelas Confort", Category: "literie", Quantity: 2, PriceTTC: 60, Discount: 10, DiscountType: model.DiscountPercent},
		},
		PaymentMethod: "cheque",
		TermsAccepted: true,
		CreatedAt:     time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC),
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	states     []submit.State
	validation [][]model.FieldViolation
	attempts   []wire.Encoding
}

func (o *recordingObserver) OnStateChange(_ string, state submit.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) OnValidation(_ string, violations []model.FieldViolation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validation = append(o.validation, violations)
}

func (o *recordingObserver) OnDeliveryAttempt(_ string, encoding wire.Encoding, _ *delivery.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, encoding)
}

func TestSubmit_Succeeds(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := submit.NewCoordinator(delivery.New(srv.URL), submit.WithObserver(obs))

	result := c.Submit(context.Background(), sampleInvoice("2025-0001"), samplePDF)

	require.Equal(t, submit.StatusSucceeded, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, wire.EncodingStandardJSON, result.Encoding)
	assert.NotEmpty(t, result.SubmissionID)
	assert.False(t, result.Shared)
	assert.NoError(t, result.Err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))

	assert.Equal(t, []submit.State{
		submit.StateValidating,
		submit.StateTransforming,
		submit.StateSending,
		submit.StateSucceeded,
	}, obs.states)
	assert.Equal(t, []wire.Encoding{wire.EncodingStandardJSON}, obs.attempts)
}

func TestSubmit_ValidationFailureShortCircuits(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := submit.NewCoordinator(delivery.New(srv.URL), submit.WithObserver(obs))

	raw := sampleInvoice("2025-0002")
	raw.ClientEmail = ""

	result := c.Submit(context.Background(), raw, samplePDF)

	require.Equal(t, submit.StatusValidationFailed, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "client_email", result.Violations[0].Field)
	assert.Equal(t, 0, result.Attempts)

	var verr *model.ValidationError
	require.ErrorAs(t, result.Err, &verr)

	// No network call on validation failure
	assert.EqualValues(t, 0, atomic.LoadInt32(&requests))
	assert.Empty(t, obs.attempts)
	require.Len(t, obs.validation, 1)
}

func TestSubmit_EncodingFallback(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First encoding is rejected, second accepted
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL))

	result := c.Submit(context.Background(), sampleInvoice("2025-0003"), samplePDF)

	require.Equal(t, submit.StatusSucceeded, result.Status)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, wire.EncodingEmbeddedBinary, result.Encoding)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestSubmit_AllEncodingsExhausted(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("field mapping rejected"))
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL))

	result := c.Submit(context.Background(), sampleInvoice("2025-0004"), samplePDF)

	require.Equal(t, submit.StatusDeliveryFailed, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))

	require.NotNil(t, result.Outcome)
	assert.Equal(t, delivery.OutcomeHTTPError, result.Outcome.Kind)
	assert.Equal(t, http.StatusBadRequest, result.Outcome.StatusCode)

	var exhausted *model.EncodingExhaustedError
	require.ErrorAs(t, result.Err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)

	var derr *model.DeliveryError
	require.True(t, errors.As(exhausted.Last, &derr))
	assert.Equal(t, http.StatusBadRequest, derr.StatusCode)
}

func TestSubmit_SingleFlight(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL))

	var wg sync.WaitGroup
	results := make([]*submit.Result, 2)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if idx == 1 {
				time.Sleep(20 * time.Millisecond) // join the flight already underway
			}
			results[idx] = c.Submit(context.Background(), sampleInvoice("2025-0005"), samplePDF)
		}(i)
	}
	wg.Wait()

	// Two concurrent submits, one HTTP request
	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))

	for _, r := range results {
		require.Equal(t, submit.StatusSucceeded, r.Status)
	}
	assert.Equal(t, results[0].SubmissionID, results[1].SubmissionID)
	assert.False(t, results[0].Shared)
	assert.True(t, results[1].Shared)
}

func TestSubmit_DistinctInvoicesNotCollapsed(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL))

	var wg sync.WaitGroup
	for _, number := range []string{"2025-0006", "2025-0007"} {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			c.Submit(context.Background(), sampleInvoice(n), samplePDF)
		}(number)
	}
	wg.Wait()

	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestSubmit_LockReleasedAfterFailure(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL),
		submit.WithEncodings(wire.EncodingStandardJSON))

	first := c.Submit(context.Background(), sampleInvoice("2025-0008"), samplePDF)
	require.Equal(t, submit.StatusDeliveryFailed, first.Status)

	// A later, distinct submission proceeds: the in-flight lock cleared
	second := c.Submit(context.Background(), sampleInvoice("2025-0008"), samplePDF)
	require.Equal(t, submit.StatusDeliveryFailed, second.Status)
	assert.False(t, second.Shared)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestSubmit_TimeoutReleasesLock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := submit.NewCoordinator(
		delivery.New(srv.URL, delivery.WithTimeout(50*time.Millisecond)),
		submit.WithEncodings(wire.EncodingStandardJSON))

	result := c.Submit(context.Background(), sampleInvoice("2025-0009"), samplePDF)

	require.Equal(t, submit.StatusDeliveryFailed, result.Status)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, delivery.OutcomeTimeout, result.Outcome.Kind)

	// Lock released: a retry starts a fresh flight instead of joining a dead one
	retry := c.Submit(context.Background(), sampleInvoice("2025-0009"), samplePDF)
	assert.False(t, retry.Shared)
}

func TestSubmit_PlaceholderFlagged(t *testing.T) {
	var delivered []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		delivered = body
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL),
		submit.WithEncodings(wire.EncodingStandardJSON),
		submit.WithWireOptions(wire.Options{MaxPDFBytes: 16, UsePlaceholder: true}))

	bigPDF := make([]byte, 1024)
	copy(bigPDF, "%PDF-1.4")

	result := c.Submit(context.Background(), sampleInvoice("2025-0010"), bigPDF)

	require.Equal(t, submit.StatusSucceeded, result.Status)
	// The caller knows the real PDF was not sent
	assert.True(t, result.PlaceholderUsed)
	assert.NotEmpty(t, delivered)
}

func TestSubmit_CustomEncodingOrder(t *testing.T) {
	var contentTypes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := submit.NewCoordinator(delivery.New(srv.URL),
		submit.WithEncodings(wire.EncodingMultipart, wire.EncodingStandardJSON))

	result := c.Submit(context.Background(), sampleInvoice("2025-0011"), samplePDF)

	require.Equal(t, submit.StatusDeliveryFailed, result.Status)
	require.Len(t, contentTypes, 2)
	assert.Contains(t, contentTypes[0], "multipart/form-data")
	assert.Equal(t, "application/json", contentTypes[1])
}
