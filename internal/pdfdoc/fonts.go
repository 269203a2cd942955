package pdfdoc

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/text/encoding/charmap"
)

const (
	defaultWidth   = 500.0
	defaultAscent  = 0.8
	defaultDescent = -0.2
)

// fontInfo holds what the interpreter needs to lay out glyphs of one font
// resource.
type fontInfo struct {
	base    string
	twoByte bool
	// glyph space to text space, 0.001 except for Type3 fonts
	unit    float64
	ascent  float64
	descent float64
	width   func(code int) float64
	decode  func(code []byte) string
}

func loadFont(f pdf.Font) *fontInfo {
	fi := &fontInfo{
		base:    strings.TrimPrefix(f.BaseFont(), subsetPrefix(f.BaseFont())),
		unit:    0.001,
		ascent:  defaultAscent,
		descent: defaultDescent,
	}
	subtype := f.V.Key("Subtype").Name()
	if subtype == "Type3" {
		if m := f.V.Key("FontMatrix"); m.Len() >= 1 {
			fi.unit = m.Index(0).Float64()
		}
	}

	desc := f.V.Key("FontDescriptor")
	if subtype == "Type0" {
		fi.twoByte = true
		dfont := f.V.Key("DescendantFonts").Index(0)
		desc = dfont.Key("FontDescriptor")
		fi.width = cidWidths(dfont)
	} else {
		fi.width = simpleWidths(f, fi.base)
	}
	if a := desc.Key("Ascent"); a.Kind() == pdf.Integer || a.Kind() == pdf.Real {
		if v := a.Float64() / 1000; v > 0 {
			fi.ascent = v
		}
	}
	if d := desc.Key("Descent"); d.Kind() == pdf.Integer || d.Kind() == pdf.Real {
		if v := d.Float64() / 1000; v < 0 {
			fi.descent = v
		}
	}

	enc := f.Encoder()
	fi.decode = func(code []byte) string {
		if enc == nil {
			return latin1(code)
		}
		return enc.Decode(string(code))
	}
	return fi
}

// fallbackFont stands in for a Tf operand that names no font resource.
func fallbackFont() *fontInfo {
	return &fontInfo{
		unit:    0.001,
		ascent:  defaultAscent,
		descent: defaultDescent,
		width:   func(int) float64 { return defaultWidth },
		decode:  latin1,
	}
}

func simpleWidths(f pdf.Font, base string) func(int) float64 {
	if f.V.Key("Widths").Len() > 0 {
		first, last := f.FirstChar(), f.LastChar()
		missing := f.V.Key("FontDescriptor").Key("MissingWidth").Float64()
		return func(code int) float64 {
			if code < first || code > last {
				return missing
			}
			return f.Width(code)
		}
	}
	if font.IsCoreFont(base) {
		dec := charmap.Windows1252
		return func(code int) float64 {
			r := dec.DecodeByte(byte(code))
			return font.TextWidth(string(r), base, 1000)
		}
	}
	return func(int) float64 { return defaultWidth }
}

// cidWidths reads the W array of a CIDFont:
//
//	[c [w1 w2 ...]  cfirst clast w ...]
func cidWidths(dfont pdf.Value) func(int) float64 {
	dw := 1000.0
	if v := dfont.Key("DW"); v.Kind() == pdf.Integer || v.Kind() == pdf.Real {
		dw = v.Float64()
	}
	widths := map[int]float64{}
	w := dfont.Key("W")
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				widths[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < 0xFFFF; c++ {
			widths[c] = width
		}
		i += 3
	}
	return func(code int) float64 {
		if v, ok := widths[code]; ok {
			return v
		}
		return dw
	}
}

// codes splits a shown string into character codes.
func (fi *fontInfo) codes(s string) [][]byte {
	b := []byte(s)
	if !fi.twoByte {
		out := make([][]byte, len(b))
		for i := range b {
			out[i] = b[i : i+1]
		}
		return out
	}
	out := make([][]byte, 0, (len(b)+1)/2)
	for i := 0; i < len(b); i += 2 {
		end := min(i+2, len(b))
		out = append(out, b[i:end])
	}
	return out
}

func codeValue(code []byte) int {
	v := 0
	for _, c := range code {
		v = v<<8 | int(c)
	}
	return v
}

// subsetPrefix returns the "ABCDEF+" tag of an embedded subset, if any.
func subsetPrefix(name string) string {
	if len(name) > 7 && name[6] == '+' && strings.ToUpper(name[:6]) == name[:6] {
		return name[:7]
	}
	return ""
}

func latin1(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
