package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor converts raw PDF bytes into plain UTF-8 text.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract parses the document and returns its plain text. Corrupt or
// non-PDF input is an error; callers must not chunk on failure.
func (e *PDFExtractor) Extract(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty document")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", fmt.Errorf("not a PDF document")
	}

	text, err := readPlainText(data)
	if err != nil {
		return "", fmt.Errorf("extract PDF text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func readPlainText(data []byte) (_ string, err error) {
	// The pdf library panics on some malformed xref tables and content
	// streams, so the whole parse runs under a recover.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF content: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
