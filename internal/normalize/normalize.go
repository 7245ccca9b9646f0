// Package normalize derives an immutable, wire-ready payload from the raw
// invoice as it arrives from the form. Every monetary figure is recomputed
// from line items so the submitted document can never drift from what the
// math says, no matter what the display layer showed.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/money"
)

// Normalize builds a Payload from a RawInvoice. It is total: absent optional
// fields become empty strings or zero, never an error.
func Normalize(raw *model.RawInvoice) *model.Payload {
	taxRate := money.FromFloat(raw.TaxRate)
	if taxRate.IsNegative() {
		taxRate = money.Zero
	}

	items := make([]model.LineItem, 0, len(raw.Items))
	sumTTC := money.Zero

	for i, it := range raw.Items {
		unitTTC := money.FromFloat(it.PriceTTC)
		discount := money.FromFloat(it.Discount)
		qty := decimal.NewFromInt(int64(it.Quantity))

		// Discount applies once, to the TTC line total.
		lineTTC := unitTTC.Mul(qty)
		switch it.DiscountType {
		case model.DiscountPercent:
			lineTTC = lineTTC.Sub(money.Percentage(lineTTC, discount))
		default:
			lineTTC = lineTTC.Sub(discount)
		}
		if lineTTC.IsNegative() {
			lineTTC = money.Zero
		}

		sumTTC = sumTTC.Add(lineTTC)

		items = append(items, model.LineItem{
			ID:           i + 1,
			Description:  strings.TrimSpace(it.Name),
			Category:     strings.TrimSpace(it.Category),
			Quantity:     it.Quantity,
			UnitPriceTTC: money.Round2(unitTTC),
			UnitPriceHT:  money.Round2(money.UnitHT(unitTTC, taxRate)),
			Discount:     money.Round2(discount),
			DiscountType: discountTypeOrDefault(it.DiscountType),
			TotalTTC:     money.Round2(lineTTC),
		})
	}

	// Aggregates accumulate unrounded and round once at emission. TVA is the
	// rounded difference so HT + TVA always reconstructs TTC exactly.
	montantTTC := money.Round2(sumTTC)
	montantHT := money.Round2(money.UnitHT(sumTTC, taxRate))
	montantTVA := montantTTC.Sub(montantHT)

	deposit := money.FromFloat(raw.DepositAmount)
	if deposit.IsNegative() {
		deposit = money.Zero
	}
	deposit = money.Round2(deposit)

	advisor := strings.TrimSpace(raw.AdvisorName)
	if advisor == "" {
		advisor = model.DefaultAdvisorName
	}

	createdAt := raw.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &model.Payload{
		InvoiceNumber: strings.TrimSpace(raw.InvoiceNumber),
		InvoiceDate:   strings.TrimSpace(raw.InvoiceDate),
		EventLocation: strings.TrimSpace(raw.EventLocation),

		ClientName:        strings.TrimSpace(raw.ClientName),
		ClientEmail:       strings.ToLower(strings.TrimSpace(raw.ClientEmail)),
		ClientPhone:       strings.TrimSpace(raw.ClientPhone),
		ClientAddress:     strings.TrimSpace(raw.ClientAddress),
		ClientPostalCode:  strings.TrimSpace(raw.ClientPostalCode),
		ClientCity:        strings.TrimSpace(raw.ClientCity),
		ClientHousingType: strings.TrimSpace(raw.ClientHousingType),
		ClientDoorCode:    strings.TrimSpace(raw.ClientDoorCode),
		ClientSiret:       strings.TrimSpace(raw.ClientSiret),

		AdvisorName: advisor,
		TaxRate:     taxRate,

		Items: items,

		MontantHT:       montantHT,
		MontantTVA:      montantTVA,
		MontantTTC:      montantTTC,
		DepositAmount:   deposit,
		RemainingAmount: montantTTC.Sub(deposit),

		PaymentMethod: strings.TrimSpace(raw.PaymentMethod),
		Signature:     strings.TrimSpace(raw.Signature),
		TermsAccepted: raw.TermsAccepted,
		Notes:         strings.TrimSpace(raw.Notes),

		CreatedAt: createdAt,
	}
}

func discountTypeOrDefault(dt model.DiscountType) model.DiscountType {
	if dt == model.DiscountPercent {
		return model.DiscountPercent
	}
	return model.DiscountAmount
}
