// Package document reads financial disclosure files into plain text
// for extraction prompts while retaining the raw bytes for the remote
// upload and, for HTML filings, the inline-XBRL tag scan.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one input filing.
type Document struct {
	Name   string // base filename, used as the batch label
	Raw    []byte // original bytes, uploaded verbatim to the extraction service
	Text   string // extracted plain text
	IsHTML bool   // true for inline-XBRL capable markup
}

// SupportedExtensions lists file extensions the pipeline can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Reader converts raw document bytes into Documents.
type Reader struct {
	// PDFFallbackPdftotext enables shelling out to pdftotext when the
	// Go PDF library cannot extract text.
	PDFFallbackPdftotext bool
}

// Read loads and parses the file at path. Any failure here is an
// input error and fatal to the run.
func (r *Reader) Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return r.ReadBytes(filepath.Base(path), data)
}

// ReadBytes parses in-memory document bytes, dispatching on the
// filename extension.
func (r *Reader) ReadBytes(name string, data []byte) (*Document, error) {
	doc := &Document{Name: name, Raw: data}

	ext := strings.ToLower(filepath.Ext(name))
	var text string
	var err error
	switch ext {
	case ".txt":
		text = plainText(data)
	case ".md", ".markdown":
		text, err = markdownText(data)
	case ".html", ".htm":
		text, err = htmlText(data)
		doc.IsHTML = true
	case ".pdf":
		text, err = r.pdfText(data)
	case ".docx":
		text, err = docxText(data)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	doc.Text = text
	return doc, nil
}
