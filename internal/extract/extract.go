// Package extract converts uploaded files into plain text for chunking.
// PDF files are parsed page by page; everything else is treated as text,
// decoded as UTF-8 with a permissive single-byte fallback so the extractor
// never fails on decodable-but-non-UTF-8 input.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnreadableDocument is returned when the PDF parser rejects a
// structurally corrupt file. It is the only failure mode of this package.
var ErrUnreadableDocument = errors.New("unreadable document")

// Extract converts the raw bytes of a named upload into a single text string.
// Files whose name ends in ".pdf" (case-insensitive) are parsed as PDF with
// per-page text joined by newlines; pages with no extractable text contribute
// an empty string (scanned pages are not OCR'd). All other files are decoded
// as UTF-8, falling back to ISO-8859-1 with replacement on invalid input.
func Extract(filename string, data []byte) (string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return extractPDF(filename, data)
	}
	return decodeText(data), nil
}

// extractPDF parses data as a PDF and concatenates per-page plain text.
func extractPDF(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: %q: %w: %v", filename, ErrUnreadableDocument, err)
	}

	pages := reader.NumPage()
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A page that fails text extraction contributes an empty string,
			// mirroring image-only pages.
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, "\n"), nil
}

// decodeText returns data as a string, interpreting it as UTF-8 when valid
// and as ISO-8859-1 otherwise. The fallback maps every byte to a rune, so
// decoding never fails.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 accepts all byte values; this path is unreachable in
		// practice but kept so a decoder change cannot panic the pipeline.
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(decoded)
}
