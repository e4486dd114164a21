package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal single-font PDF with one text line per page.
func buildPDF(pages ...string) []byte {
	var objs []string
	n := len(pages)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	text := strings.Repeat("a", 7000)
	res, err := Extract([]byte(text), "text/plain; charset=utf-8", Options{})
	require.NoError(t, err)
	assert.Equal(t, text, res.Text)
	assert.Equal(t, 3, res.PageCount)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		mime    string
		opts    Options
		reason  string
	}{
		{"unsupported", []byte("x"), "image/png", Options{}, "unsupported file type"},
		{"blank", []byte("  \n\t "), MimePlain, Options{}, "no text content"},
		{"invalid utf8", []byte{0xff, 0xfe, 0x41}, MimePlain, Options{}, "not valid UTF-8"},
		{"corrupt pdf", []byte("%PDF-1.4 garbage"), MimePDF, Options{}, "unreadable PDF"},
		{"too many pages", []byte(strings.Repeat("b", 3001)), MimePlain, Options{MaxPages: 1}, "limit is 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.content, tt.mime, tt.opts)
			var eerr *Error
			require.ErrorAs(t, err, &eerr)
			assert.Contains(t, eerr.Error(), tt.reason)
		})
	}
}

func TestExtractPDF(t *testing.T) {
	content := buildPDF("Hello world", "Second page")
	res, err := Extract(content, MimePDF, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)
	assert.Contains(t, res.Text, "Hello")
	assert.Contains(t, res.Text, "Second")
}

func TestExtractPDFPageLimit(t *testing.T) {
	content := buildPDF("one", "two", "three")
	_, err := Extract(content, MimePDF, Options{MaxPages: 2})
	var eerr *Error
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "3 pages")
}

func TestExtractSniffsPDFMagic(t *testing.T) {
	content := buildPDF("sniffed")
	res, err := Extract(content, "application/octet-stream", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageCount)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("application/pdf"))
	assert.True(t, Supported("Text/Plain; charset=utf-8"))
	assert.False(t, Supported("application/msword"))
}
