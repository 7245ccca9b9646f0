// Package validate enforces the schema rules a payload must satisfy before
// any network attempt. It collects every violation in one pass so the caller
// can surface all of them at once.
package validate

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/money"
)

// tolerance for the HT + TVA == TTC reconstruction check
var amountTolerance = money.MustFromString("0.01")

var fieldRules = validatorv10.New()

// Validate runs every schema rule against the payload. A nil violation list
// means the payload is valid and is returned re-typed, unchanged.
func Validate(p *model.Payload) (*model.Validated, []model.FieldViolation) {
	var violations []model.FieldViolation

	add := func(field, message string) {
		violations = append(violations, model.FieldViolation{Field: field, Message: message})
	}

	if p.InvoiceNumber == "" {
		add("invoice_number", "invoice number is required")
	}
	if p.InvoiceDate == "" {
		add("invoice_date", "invoice date is required")
	}
	if p.ClientName == "" {
		add("client_name", "client name is required")
	}
	if p.ClientEmail == "" {
		add("client_email", "client email is required")
	} else if err := fieldRules.Var(p.ClientEmail, "email"); err != nil {
		add("client_email", "client email is not a valid address")
	}
	if p.ClientPhone == "" {
		add("client_phone", "client phone is required")
	}
	if p.ClientAddress == "" {
		add("client_address", "client address is required")
	}
	if p.ClientCity == "" {
		add("client_city", "client city is required")
	}
	if p.ClientPostalCode == "" {
		add("client_postal_code", "client postal code is required")
	}

	if len(p.Items) == 0 {
		add("items", "at least one line item is required")
	}
	for i, it := range p.Items {
		if it.Quantity < 1 {
			add(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
		if !money.IsNonNegative(it.UnitPriceTTC) || !money.IsNonNegative(it.UnitPriceHT) {
			add(fmt.Sprintf("items[%d].unit_price", i), "unit price must not be negative")
		}
		if !money.IsNonNegative(it.Discount) {
			add(fmt.Sprintf("items[%d].discount", i), "discount must not be negative")
		}
	}

	if p.PaymentMethod == "" {
		add("payment_method", "payment method is required")
	}
	if !p.TermsAccepted {
		add("terms_accepted", "terms must be accepted")
	}

	// Cross-field: the rounded aggregates must still reconstruct each other.
	// Catches any disagreement between the normalizer and what the UI showed.
	reconstructed := p.MontantHT.Add(p.MontantTVA)
	if !money.WithinTolerance(reconstructed, p.MontantTTC, amountTolerance) {
		add("montant_ttc", fmt.Sprintf(
			"montant HT (%s) + TVA (%s) does not reconstruct TTC (%s)",
			p.MontantHT.StringFixed(2), p.MontantTVA.StringFixed(2), p.MontantTTC.StringFixed(2)))
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return &model.Validated{Payload: p}, nil
}
