package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType tags how a line item discount is expressed
type DiscountType string

const (
	DiscountAmount  DiscountType = "amount"
	DiscountPercent DiscountType = "percent"
)

// DefaultAdvisorName is substituted when the form leaves the advisor blank
const DefaultAdvisorName = "MYCONFORT"

// RawInvoice is the mutable, UI-facing invoice as it arrives from the form.
// It is never sent over the wire directly; the normalizer derives an
// immutable Payload from it.
type RawInvoice struct {
	InvoiceNumber string `json:"invoiceNumber"`
	InvoiceDate   string `json:"invoiceDate"`
	EventLocation string `json:"eventLocation"`

	ClientName        string `json:"clientName"`
	ClientEmail       string `json:"clientEmail"`
	ClientPhone       string `json:"clientPhone"`
	ClientAddress     string `json:"clientAddress"`
	ClientPostalCode  string `json:"clientPostalCode"`
	ClientCity        string `json:"clientCity"`
	ClientHousingType string `json:"clientHousingType"`
	ClientDoorCode    string `json:"clientDoorCode"`
	ClientSiret       string `json:"clientSiret"`

	AdvisorName string  `json:"advisorName"`
	TaxRate     float64 `json:"taxRate"`

	Items []RawLineItem `json:"products"`

	PaymentMethod string  `json:"paymentMethod"`
	DepositAmount float64 `json:"montantAcompte"`

	Signature     string `json:"signature"`
	TermsAccepted bool   `json:"termsAccepted"`
	Notes         string `json:"invoiceNotes"`

	CreatedAt time.Time `json:"createdAt"`
}

// RawLineItem is a single product line as entered in the form.
// Prices are tax-inclusive; the discount is either an absolute amount
// or a percentage depending on DiscountType.
type RawLineItem struct {
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Quantity     int          `json:"quantity"`
	PriceTTC     float64      `json:"priceTTC"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`
}

// LineItem is the derived, immutable form of a product line.
// TotalTTC honors: round2(quantity * priceTTC * (1 - effectiveDiscountFraction)).
type LineItem struct {
	ID           int
	Description  string
	Category     string
	Quantity     int
	UnitPriceTTC decimal.Decimal
	UnitPriceHT  decimal.Decimal
	Discount     decimal.Decimal
	DiscountType DiscountType
	TotalTTC     decimal.Decimal
}

// Payload is the immutable normalized snapshot of an invoice. All monetary
// aggregates are recomputed from line items, never trusted from the UI.
// Created once per submission attempt and not mutated afterward.
type Payload struct {
	InvoiceNumber string
	InvoiceDate   string
	EventLocation string

	ClientName        string
	ClientEmail       string
	ClientPhone       string
	ClientAddress     string
	ClientPostalCode  string
	ClientCity        string
	ClientHousingType string
	ClientDoorCode    string
	ClientSiret       string

	AdvisorName string
	TaxRate     decimal.Decimal

	Items []LineItem

	MontantHT       decimal.Decimal
	MontantTVA      decimal.Decimal
	MontantTTC      decimal.Decimal
	DepositAmount   decimal.Decimal
	RemainingAmount decimal.Decimal

	PaymentMethod string
	Signature     string
	TermsAccepted bool
	Notes         string

	CreatedAt time.Time
}

// Validated wraps a Payload that passed every schema rule. It carries no new
// fields, only the type-level guarantee that validation ran.
type Validated struct {
	Payload *Payload
}
