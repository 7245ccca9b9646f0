// Package pdfinfo inspects the rendered PDF before it is attached to an
// envelope. Findings are advisory: a broken structure becomes a warning on
// the submission result, never a hard failure.
package pdfinfo

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Info summarizes an inspected document
type Info struct {
	Pages int
	Size  int
}

// IsPDF sniffs the %PDF header
func IsPDF(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == '%' && data[1] == 'P' && data[2] == 'D' && data[3] == 'F'
}

// Inspect validates the document structure and reports its page count
func Inspect(data []byte) (*Info, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("pdfinfo: missing %%PDF header")
	}

	if err := api.Validate(bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("pdfinfo: structure validation: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("pdfinfo: page count: %w", err)
	}

	return &Info{Pages: pages, Size: len(data)}, nil
}
