// Package extract turns uploaded bytes into plain text plus a page count.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"doc-rater/internal/chunker"
)

const (
	MimePDF   = "application/pdf"
	MimePlain = "text/plain"

	DefaultMaxPages = 1000
)

var pdfMagic = []byte("%PDF-")

// Options bounds what Extract accepts.
type Options struct {
	MaxPages int
}

// Result is the extracted document text.
type Result struct {
	Text      string
	PageCount int
}

// Error marks a document that cannot be turned into text.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Cause)
	}
	return "extraction failed: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Cause }

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch baseType(mimeType) {
	case MimePDF, MimePlain:
		return true
	}
	return false
}

// Extract reads text from a PDF or plain-text upload.
func Extract(content []byte, mimeType string, opts Options) (Result, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	var (
		res Result
		err error
	)
	switch {
	case baseType(mimeType) == MimePDF || bytes.HasPrefix(content, pdfMagic):
		res, err = extractPDF(content)
	case baseType(mimeType) == MimePlain:
		res, err = extractPlain(content)
	default:
		return Result{}, &Error{Reason: fmt.Sprintf("unsupported file type %q", mimeType)}
	}
	if err != nil {
		return Result{}, err
	}

	if res.PageCount > opts.MaxPages {
		return Result{}, &Error{Reason: fmt.Sprintf("document has %d pages, limit is %d", res.PageCount, opts.MaxPages)}
	}
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, &Error{Reason: "no text content found in document"}
	}
	return res, nil
}

func extractPlain(content []byte) (Result, error) {
	if !utf8.Valid(content) {
		return Result{}, &Error{Reason: "text file is not valid UTF-8"}
	}
	text := string(content)
	return Result{
		Text:      text,
		PageCount: chunker.EstimatePage(utf8.RuneCountInString(text)),
	}, nil
}

func extractPDF(content []byte) (Result, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return Result{}, &Error{Reason: "unreadable PDF", Cause: err}
	}

	text, err := pdfText(content)
	if err != nil {
		return Result{}, &Error{Reason: "unreadable PDF", Cause: err}
	}
	return Result{Text: text, PageCount: pages}, nil
}

func pdfText(content []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint(r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
