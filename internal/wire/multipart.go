package wire

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/htconfort/facturation/internal/model"
)

// BinaryPartName is the form field carrying the PDF bytes
const BinaryPartName = "data"

func buildMultipart(p *model.Payload, pdf []byte, fileName string, placeholderUsed bool) (*Envelope, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	body := invoiceBody(p)
	for _, f := range formFields(body) {
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, err
		}
	}

	// True binary part, not base64: platforms that parse multipart natively
	// expect the raw bytes with filename and content-type metadata.
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		`form-data; name="`+BinaryPartName+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", pdfMimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return &Envelope{
		Encoding:        EncodingMultipart,
		ContentType:     w.FormDataContentType(),
		Body:            buf.Bytes(),
		FileName:        fileName,
		PlaceholderUsed: placeholderUsed,
	}, nil
}

type formField struct {
	key   string
	value string
}

// formFields flattens the business fields into stringified form parts.
// Scalars keep their text form; the items array is JSON-stringified.
func formFields(b InvoiceBody) []formField {
	itemsJSON, _ := json.Marshal(b.Items)

	return []formField{
		{"invoice_number", b.InvoiceNumber},
		{"invoice_date", b.InvoiceDate},
		{"event_location", b.EventLocation},
		{"client_name", b.ClientName},
		{"client_email", b.ClientEmail},
		{"client_phone", b.ClientPhone},
		{"client_address", b.ClientAddress},
		{"client_postal_code", b.ClientPostalCode},
		{"client_city", b.ClientCity},
		{"client_housing_type", b.ClientHousingType},
		{"client_door_code", b.ClientDoorCode},
		{"client_siret", b.ClientSiret},
		{"advisor_name", b.AdvisorName},
		{"tax_rate", formatAmount(b.TaxRate)},
		{"amount", formatAmount(b.Amount)},
		{"amount_ht", formatAmount(b.AmountHT)},
		{"amount_ttc", formatAmount(b.AmountTTC)},
		{"amount_tva", formatAmount(b.AmountTVA)},
		{"items", string(itemsJSON)},
		{"payment_method", b.PaymentMethod},
		{"deposit_amount", formatAmount(b.DepositAmount)},
		{"remaining_amount", formatAmount(b.RemainingAmount)},
		{"signature", b.Signature},
		{"terms_accepted", strconv.FormatBool(b.TermsAccepted)},
		{"notes", b.Notes},
		{"created_at", b.CreatedAt},
		{"source", b.Source},
		{"version", b.Version},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
