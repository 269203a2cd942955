package pdfdoc

import (
	"bytes"
	"fmt"
	"strings"
)

// Layout of documents made by NewTextDocument, in PDF user space.
const (
	TextLeft     = 72.0
	TextTop      = 720.0
	TextSize     = 12.0
	TextLeading  = 14.0
	letterWidth  = 612.0
	letterHeight = 792.0
)

// NewTextDocument renders a US Letter PDF with one page per entry of pages
// and one Helvetica line per string. The first baseline of each page is at
// (TextLeft, TextTop).
func NewTextDocument(pages ...[]string) []byte {
	contents := make([]string, len(pages))
	for i, lines := range pages {
		contents[i] = textContent(lines)
	}
	return buildDocument(contents)
}

// buildDocument writes one Letter page per content stream; every page can use
// Helvetica as /F1.
func buildDocument(contents []string) []byte {
	var (
		buf     bytes.Buffer
		offsets []int
	)
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, content := range contents {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			letterWidth, letterHeight, 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func textContent(lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %g Tf\n%g TL\n%g %g Td\n", TextSize, TextLeading, TextLeft, TextTop)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escapeLiteral(line))
	}
	b.WriteString("ET")
	return b.String()
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`, "\n", `\n`)
	return r.Replace(s)
}
