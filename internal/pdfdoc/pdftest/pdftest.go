// Package pdftest writes small real PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/pdfeditor/internal/pdfdoc"
)

// SampleLine is the text used by Sample.
const SampleLine = "This is some sample text that can be replaced."

// Write stores a document with the given pages in dir and returns its path.
func Write(t testing.TB, dir, name string, pages ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pdfdoc.NewTextDocument(pages...), 0o644))
	return path
}

// Sample writes a one-page document containing SampleLine.
func Sample(t testing.TB, dir string) string {
	t.Helper()
	return Write(t, dir, "sample.pdf", []string{SampleLine, "Second line of the page."})
}

// Helvetica is a font dictionary for the standard Helvetica with WinAnsi
// encoding and no /Widths.
const Helvetica = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

// Stream formats content as the body of an unfiltered stream object.
func Stream(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// Build writes a document from object bodies. objs[i] becomes object i+1 and
// object 1 must be the catalog.
func Build(objs ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
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

// WriteObjects stores Build(objs...) in dir and returns its path.
func WriteObjects(t testing.TB, dir, name string, objs ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, Build(objs...), 0o644))
	return path
}

// PageText returns the plain text of page n (1-based) of the document at path.
func PageText(t testing.TB, path string, n int) string {
	t.Helper()
	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.LessOrEqual(t, n, r.NumPage())

	p := r.Page(n)
	require.Equal(t, pdf.Stream, p.V.Key("Contents").Kind(), "page %d: text is read from a single content stream", n)
	var sb []byte
	for _, txt := range p.Content().Text {
		sb = append(sb, txt.S...)
	}
	return string(sb)
}

// PageCount returns the number of pages of the document at path.
func PageCount(t testing.TB, path string) int {
	t.Helper()
	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()
	return r.NumPage()
}

// Content returns the decoded content streams of page n, concatenated.
func Content(t testing.TB, path string, n int) []byte {
	t.Helper()
	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()

	v := r.Page(n).V.Key("Contents")
	streams := []pdf.Value{v}
	if v.Kind() == pdf.Array {
		streams = streams[:0]
		for i := 0; i < v.Len(); i++ {
			streams = append(streams, v.Index(i))
		}
	}
	var out []byte
	for _, s := range streams {
		rc := s.Reader()
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}
