package pdfdoc

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// insertFont is the standard font used for inserted text; it needs no
// embedding.
const insertFont = "Helvetica"

const lineSpacing = 1.2

type insertion struct {
	at    types.Point
	text  string
	style types.TextStyle
}

// encodeWinAnsi maps s to the font's WinAnsiEncoding; characters outside it
// become the substitute byte.
func encodeWinAnsi(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", s, err)
	}
	return b, nil
}

// writeInsertion emits a text object drawing ins with the font resource
// fontRes. The baseline of the first line sits on ins.at.
func writeInsertion(buf *bytes.Buffer, fr frame, fontRes string, ins insertion) error {
	x, y := fr.toDevice(ins.at)
	size := ins.style.Size
	c := ins.style.Color

	buf.WriteString("q\n")
	fmt.Fprintf(buf, "%s %s %s rg\n", formatNumber(c.R), formatNumber(c.G), formatNumber(c.B))
	buf.WriteString("BT\n")
	writeName(buf, fontRes)
	fmt.Fprintf(buf, " %s Tf\n", formatNumber(size))
	fmt.Fprintf(buf, "%s TL\n", formatNumber(size*lineSpacing))
	m := fr.upright()
	fmt.Fprintf(buf, "%s %s %s %s %s %s Tm\n", formatNumber(m[0]), formatNumber(m[1]),
		formatNumber(m[2]), formatNumber(m[3]), formatNumber(x), formatNumber(y))
	lines := strings.Split(strings.ReplaceAll(ins.text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		b, err := encodeWinAnsi(line)
		if err != nil {
			return err
		}
		if i > 0 {
			buf.WriteString("T*\n")
		}
		writeHexString(buf, b)
		buf.WriteString(" Tj\n")
	}
	buf.WriteString("ET\nQ\n")
	return nil
}

// writeFill paints r white.
func writeFill(buf *bytes.Buffer, fr frame, r types.Rect) {
	x0, y0 := fr.toDevice(r.TopLeft())
	x1, y1 := fr.toDevice(types.Point{X: r.X1, Y: r.Y1})
	fmt.Fprintf(buf, "q\n1 1 1 rg\n%s %s %s %s re\nf\nQ\n",
		formatNumber(min(x0, x1)), formatNumber(min(y0, y1)),
		formatNumber(math.Abs(x1-x0)), formatNumber(math.Abs(y1-y0)))
}
