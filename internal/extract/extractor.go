// Package extract turns uploaded documents into sentence columns
// ready for embedding. PDF text comes out via ledongthuc/pdf with
// per-page attribution; everything else is treated as plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/doclink-ai/doclink/internal/service"
)

// Extractor implements sentence extraction for the upload pipeline.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ReadFile extracts sentences from data based on the file extension.
// An empty result is not an error; callers decide how to treat files
// with no extractable content.
func (e *Extractor) ReadFile(ctx context.Context, name string, data []byte) (*service.ExtractedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	default:
		return extractPlainText(string(data)), nil
	}
}

func extractPDF(data []byte) (*service.ExtractedFile, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	out := &service.ExtractedFile{}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := pageText(page)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		pageFile := extractPlainText(text)
		for i, s := range pageFile.Sentences {
			out.Sentences = append(out.Sentences, s)
			out.PageNumbers = append(out.PageNumbers, pageNum)
			out.IsHeaders = append(out.IsHeaders, pageFile.IsHeaders[i])
			out.IsTables = append(out.IsTables, pageFile.IsTables[i])
		}
	}
	return out, nil
}

func pageText(page pdf.Page) (string, error) {
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return text, nil
}

// extractPlainText splits text into sentence-sized units with header
// and table flags. Lines are the structural hint: a short line without
// terminal punctuation reads as a header, a line with column
// separators reads as a table row.
func extractPlainText(text string) *service.ExtractedFile {
	out := &service.ExtractedFile{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isTableRow(line) {
			appendUnit(out, line, 1, false, true)
			continue
		}
		if isHeaderLine(line) {
			appendUnit(out, line, 1, true, false)
			continue
		}
		for _, sentence := range splitSentences(line) {
			appendUnit(out, sentence, 1, false, false)
		}
	}
	return out
}

func appendUnit(out *service.ExtractedFile, sentence string, page int, header, table bool) {
	out.Sentences = append(out.Sentences, sentence)
	out.PageNumbers = append(out.PageNumbers, page)
	out.IsHeaders = append(out.IsHeaders, header)
	out.IsTables = append(out.IsTables, table)
}

const headerMaxLen = 80

func isHeaderLine(line string) bool {
	if len(line) > headerMaxLen {
		return false
	}
	last := rune(line[len(line)-1])
	if last == '.' || last == '!' || last == '?' || last == ';' {
		return false
	}
	words := strings.Fields(line)
	return len(words) <= 10
}

func isTableRow(line string) bool {
	return strings.Count(line, "|") >= 2 || strings.Count(line, "\t") >= 2
}

// splitSentences breaks a paragraph on terminal punctuation followed
// by whitespace and an upper-case or numeric continuation.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		if i+2 < len(runes) && unicode.IsSpace(runes[i+1]) && (unicode.IsUpper(runes[i+2]) || unicode.IsDigit(runes[i+2])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
			i++
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
