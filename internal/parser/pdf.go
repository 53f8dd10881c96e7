package parser

import (
	"bytes"
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Each page becomes one block of text.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if !looksLikePDF(data) {
		return nil, fmt.Errorf("file is not a PDF")
	}

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	var skipped int
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			skipped++
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			skipped++
			continue
		}
		pages = append(pages, text)
	}

	doc := newDocument(trimExt(filename, ".pdf"), pages, numPages)
	if doc.Text == "" {
		doc.Warnings = []string{"No extractable text found (possibly a scanned PDF)"}
	}
	if skipped > 0 {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("%d of %d pages could not be read", skipped, numPages))
	}
	return doc, nil
}

// looksLikePDF checks the file signature.
func looksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}
