// Package wire maps a validated payload plus its rendered PDF into one of the
// encodings the receiving automation platform understands. Building an
// envelope is pure data mapping; no I/O happens here.
package wire

import (
	"bytes"
	"fmt"

	"github.com/htconfort/facturation/internal/model"
)

// Encoding selects one of the wire representations
type Encoding int

const (
	EncodingStandardJSON Encoding = iota
	EncodingEmbeddedBinary
	EncodingMultipart
)

func (e Encoding) String() string {
	switch e {
	case EncodingStandardJSON:
		return "standard_json"
	case EncodingEmbeddedBinary:
		return "embedded_binary"
	case EncodingMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Fields identifying the producing application on the wire
const (
	Source        = "facturation"
	SchemaVersion = "1.0"
	pdfMimeType   = "application/pdf"
)

// Options tunes envelope construction. The placeholder substitution exists so
// connectivity and field-mapping issues can be diagnosed independently of
// payload size; it is never applied unless UsePlaceholder is set, and the
// resulting envelope is flagged.
type Options struct {
	MaxPDFBytes    int
	UsePlaceholder bool
}

// Envelope is a fully-encoded representation ready for one delivery attempt.
// Envelopes are built fresh per attempt and never reused across encodings.
type Envelope struct {
	Encoding        Encoding
	ContentType     string
	Body            []byte
	FileName        string
	PlaceholderUsed bool
}

// Build constructs the envelope for the requested encoding.
func Build(v *model.Validated, pdf []byte, enc Encoding, opts Options) (*Envelope, error) {
	if v == nil || v.Payload == nil {
		return nil, fmt.Errorf("wire: nil payload")
	}

	placeholderUsed := false
	if opts.UsePlaceholder && opts.MaxPDFBytes > 0 && len(pdf) > opts.MaxPDFBytes {
		pdf = PlaceholderPDF()
		placeholderUsed = true
	}

	fileName := fmt.Sprintf("Facture_%s.pdf", v.Payload.InvoiceNumber)

	switch enc {
	case EncodingStandardJSON:
		return buildStandardJSON(v.Payload, pdf, fileName, placeholderUsed)
	case EncodingEmbeddedBinary:
		return buildEmbeddedBinary(v.Payload, pdf, fileName, placeholderUsed)
	case EncodingMultipart:
		return buildMultipart(v.Payload, pdf, fileName, placeholderUsed)
	default:
		return nil, fmt.Errorf("wire: unsupported encoding %d", int(enc))
	}
}

// PlaceholderPDF returns a minimal single-page document substituted for
// oversized attachments in diagnostic runs. Offsets in the xref table are
// computed while writing, so the output is a structurally complete PDF.
func PlaceholderPDF() []byte {
	objects := []string{
		"1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n",
		"2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1>>\nendobj\n",
		"3 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 595 842]>>\nendobj\n",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, b.Len())
		b.WriteString(obj)
	}

	xrefPos := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<</Size %d/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefPos)

	return b.Bytes()
}
