package wire

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/htconfort/facturation/internal/model"
	"github.com/htconfort/facturation/internal/money"
)

// InvoiceBody carries the business fields shared by every encoding.
// Field names follow the receiving platform's snake_case contract.
type InvoiceBody struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	EventLocation string `json:"event_location"`

	ClientName        string `json:"client_name"`
	ClientEmail       string `json:"client_email"`
	ClientPhone       string `json:"client_phone"`
	ClientAddress     string `json:"client_address"`
	ClientPostalCode  string `json:"client_postal_code"`
	ClientCity        string `json:"client_city"`
	ClientHousingType string `json:"client_housing_type"`
	ClientDoorCode    string `json:"client_door_code"`
	ClientSiret       string `json:"client_siret"`

	AdvisorName string  `json:"advisor_name"`
	TaxRate     float64 `json:"tax_rate"`

	Amount    float64 `json:"amount"`
	AmountHT  float64 `json:"amount_ht"`
	AmountTTC float64 `json:"amount_ttc"`
	AmountTVA float64 `json:"amount_tva"`

	Items []ItemBody `json:"items"`

	PaymentMethod   string  `json:"payment_method"`
	DepositAmount   float64 `json:"deposit_amount"`
	RemainingAmount float64 `json:"remaining_amount"`

	Signature     string `json:"signature"`
	TermsAccepted bool   `json:"terms_accepted"`
	Notes         string `json:"notes"`

	CreatedAt string `json:"created_at"`
	Source    string `json:"source"`
	Version   string `json:"version"`
}

// ItemBody is one line item on the wire
type ItemBody struct {
	ID           int     `json:"id"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	UnitPriceHT  float64 `json:"unit_price_ht"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discount_type"`
	TotalPrice   float64 `json:"total_price"`
}

// StandardBody is the StandardJSON encoding: business fields plus the PDF as
// a single base64 string.
type StandardBody struct {
	InvoiceBody
	PDFBase64 string `json:"pdf_base64"`
}

// EmbeddedBody nests the PDF under a binary.data sub-object, matching
// automation nodes that special-case it for attachment extraction.
type EmbeddedBody struct {
	InvoiceBody
	Binary BinaryWrapper `json:"binary"`
}

// BinaryWrapper holds the attachment sub-object
type BinaryWrapper struct {
	Data BinaryData `json:"data"`
}

// BinaryData describes the embedded attachment
type BinaryData struct {
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
	Data     string `json:"data"`
	Size     int    `json:"size"`
}

func invoiceBody(p *model.Payload) InvoiceBody {
	items := make([]ItemBody, len(p.Items))
	for i, it := range p.Items {
		items[i] = ItemBody{
			ID:           it.ID,
			Description:  it.Description,
			Category:     it.Category,
			Quantity:     it.Quantity,
			UnitPrice:    emit(it.UnitPriceTTC),
			UnitPriceHT:  emit(it.UnitPriceHT),
			Discount:     emit(it.Discount),
			DiscountType: string(it.DiscountType),
			TotalPrice:   emit(it.TotalTTC),
		}
	}

	return InvoiceBody{
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		EventLocation: p.EventLocation,

		ClientName:        p.ClientName,
		ClientEmail:       p.ClientEmail,
		ClientPhone:       p.ClientPhone,
		ClientAddress:     p.ClientAddress,
		ClientPostalCode:  p.ClientPostalCode,
		ClientCity:        p.ClientCity,
		ClientHousingType: p.ClientHousingType,
		ClientDoorCode:    p.ClientDoorCode,
		ClientSiret:       p.ClientSiret,

		AdvisorName: p.AdvisorName,
		TaxRate:     emit(p.TaxRate),

		Amount:    emit(p.MontantTTC),
		AmountHT:  emit(p.MontantHT),
		AmountTTC: emit(p.MontantTTC),
		AmountTVA: emit(p.MontantTVA),

		Items: items,

		PaymentMethod:   p.PaymentMethod,
		DepositAmount:   emit(p.DepositAmount),
		RemainingAmount: emit(p.RemainingAmount),

		Signature:     p.Signature,
		TermsAccepted: p.TermsAccepted,
		Notes:         p.Notes,

		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		Source:    Source,
		Version:   SchemaVersion,
	}
}

// emit rounds at the point of external emission
func emit(d decimal.Decimal) float64 {
	f, _ := money.Round2(d).Float64()
	return f
}

func buildStandardJSON(p *model.Payload, pdf []byte, fileName string, placeholderUsed bool) (*Envelope, error) {
	body := StandardBody{
		InvoiceBody: invoiceBody(p),
		PDFBase64:   base64.StdEncoding.EncodeToString(pdf),
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Encoding:        EncodingStandardJSON,
		ContentType:     "application/json",
		Body:            raw,
		FileName:        fileName,
		PlaceholderUsed: placeholderUsed,
	}, nil
}

func buildEmbeddedBinary(p *model.Payload, pdf []byte, fileName string, placeholderUsed bool) (*Envelope, error) {
	body := EmbeddedBody{
		InvoiceBody: invoiceBody(p),
		Binary: BinaryWrapper{
			Data: BinaryData{
				MimeType: pdfMimeType,
				FileName: fileName,
				Data:     base64.StdEncoding.EncodeToString(pdf),
				Size:     len(pdf),
			},
		},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Encoding:        EncodingEmbeddedBinary,
		ContentType:     "application/json",
		Body:            raw,
		FileName:        fileName,
		PlaceholderUsed: placeholderUsed,
	}, nil
}
