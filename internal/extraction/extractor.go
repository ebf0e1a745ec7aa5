// Package extraction pulls raw text out of uploaded documents. PDFs go
// through layout-aware page extraction; everything else is treated as
// plain text with heuristic charset detection.
package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Error indicates the byte stream could not be parsed as the claimed
// format.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s document: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s document", e.Format)
}

func (e *Error) Unwrap() error { return e.Err }

var pdfMagic = []byte("%PDF-")

// Extract converts a document's raw bytes into text. Empty input
// returns an empty string without error.
func Extract(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if isPDF(data, contentType) {
		return extractPDF(data)
	}
	return decodeText(data)
}

func isPDF(data []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// extractPDF concatenates all page text in reading order, keeping page
// boundaries as newlines.
func extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &Error{Format: "pdf", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Format: "pdf", Err: err}
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &Error{Format: "pdf", Err: fmt.Errorf("page %d: %w", i, err)}
		}
		sb.WriteString(pageText)
		if !strings.HasSuffix(pageText, "\n") {
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// decodeText detects the charset of a plain-text byte stream and
// decodes it to UTF-8. Detection failure falls back to validating the
// bytes as UTF-8.
func decodeText(data []byte) (string, error) {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err == nil && result != nil {
		if decoded, ok := decodeWithCharset(data, result.Charset); ok {
			return decoded, nil
		}
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	return "", &Error{Format: "text", Err: fmt.Errorf("undecodable byte stream (detected charset %q)", charsetName(result))}
}

func decodeWithCharset(data []byte, charset string) (string, bool) {
	if strings.EqualFold(charset, "UTF-8") {
		if utf8.Valid(data) {
			return string(data), true
		}
		return "", false
	}

	enc, err := htmlindex.Get(strings.ToLower(charset))
	if err != nil {
		return "", false
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func charsetName(result *chardet.Result) string {
	if result == nil {
		return "unknown"
	}
	return result.Charset
}
