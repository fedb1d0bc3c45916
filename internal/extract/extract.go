// ABOUTME: Page extraction for documents handed to the ingestion pipeline
// ABOUTME: Reads PDFs page by page and plain text files split on form feeds
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/edurag/internal/models"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types with no extractor
var ErrUnsupportedFormat = errors.New("unsupported document format")

// pageBreak separates pages in plain text exports
const pageBreak = "\f"

// Supported reports whether path has an extension Pages can read
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Pages extracts the pages of the document at path
func Pages(path string) ([]models.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF(path)
	case ".txt", ".md":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return Text(f)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

// PDF extracts plain text from each page. Pages without content are skipped
// but keep their original numbering.
func PDF(path string) (pages []models.Page, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	// the pdf reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("reading pdf %s: %v", path, rec)
		}
	}()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}

	return pages, nil
}

// Text reads r as one page per form-feed separated section
func Text(r io.Reader) ([]models.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	var pages []models.Page
	for i, section := range strings.Split(string(data), pageBreak) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i + 1, Text: section})
	}
	return pages, nil
}
