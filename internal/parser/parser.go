package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is the plain text extracted from an uploaded file.
type Document struct {
	Title    string
	Text     string
	Pages    int // 0 when the format has no page concept
	Warnings []string
}

// Parser extracts text from raw document bytes.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions the fake intake accepts.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newDocument joins blocks with blank lines and flags documents that
// produced no text.
func newDocument(title string, blocks []string, pages int) *Document {
	var kept []string
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	doc := &Document{
		Title: title,
		Text:  strings.Join(kept, "\n\n"),
		Pages: pages,
	}
	if doc.Text == "" {
		doc.Warnings = append(doc.Warnings, "No extractable text found")
	}
	return doc
}

func trimExt(filename string, exts ...string) string {
	base := filepath.Base(filename)
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}
