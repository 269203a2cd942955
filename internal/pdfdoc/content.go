package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// matrix is a PDF transformation [a b c d e f]; p' = p × m.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n, the transform applying m first and then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2], m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2], m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4], m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

func translate(x, y float64) matrix { return matrix{1, 0, 0, 1, x, y} }

// frame maps device space to the top-left page coordinates used by callers.
// Page coordinates follow the page as displayed: rot is its /Rotate, a
// clockwise multiple of 90.
type frame struct {
	llx, lly, urx, ury float64
	rot                int
}

func (f frame) width() float64 {
	if f.rot%180 != 0 {
		return f.ury - f.lly
	}
	return f.urx - f.llx
}

func (f frame) height() float64 {
	if f.rot%180 != 0 {
		return f.urx - f.llx
	}
	return f.ury - f.lly
}

func (f frame) toPage(x, y float64) types.Point {
	w, h := f.urx-f.llx, f.ury-f.lly
	ux, uy := x-f.llx, f.ury-y
	switch f.rot {
	case 90:
		return types.Point{X: h - uy, Y: ux}
	case 180:
		return types.Point{X: w - ux, Y: h - uy}
	case 270:
		return types.Point{X: uy, Y: w - ux}
	}
	return types.Point{X: ux, Y: uy}
}

func (f frame) toDevice(p types.Point) (float64, float64) {
	w, h := f.urx-f.llx, f.ury-f.lly
	ux, uy := p.X, p.Y
	switch f.rot {
	case 90:
		ux, uy = p.Y, h-p.X
	case 180:
		ux, uy = w-p.X, h-p.Y
	case 270:
		ux, uy = w-p.Y, p.X
	}
	return f.llx + ux, f.ury - uy
}

// upright returns the linear part of a text matrix that makes text read left
// to right on the displayed page.
func (f frame) upright() matrix {
	switch f.rot {
	case 90:
		return matrix{0, 1, -1, 0, 0, 0}
	case 180:
		return matrix{-1, 0, 0, -1, 0, 0}
	case 270:
		return matrix{0, -1, 1, 0, 0, 0}
	}
	return identity
}

type op struct {
	name string
	args []pdf.Value
	// glyphs shown by this operator, as indices into layout.glyphs
	glyphs []int
}

func (o op) showsText() bool {
	switch o.name {
	case "Tj", "TJ", "'", `"`:
		return true
	}
	return false
}

type glyph struct {
	op   int
	elem int // TJ array index of the operand holding the code, 0 otherwise
	code []byte
	text string
	box  types.Rect

	origin, end types.Point // advance start and end, page coordinates
	height      float64

	adv   float64 // text space advance including spacing
	scale float64 // font size × horizontal scaling
}

func (g glyph) space() bool {
	for _, r := range g.text {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func (g glyph) centre() types.Point {
	return types.Point{X: (g.box.X0 + g.box.X1) / 2, Y: (g.box.Y0 + g.box.Y1) / 2}
}

// layout is an interpreted content stream: every operator in order plus the
// glyphs placed by its text operators.
type layout struct {
	ops    []op
	glyphs []glyph
}

type textState struct {
	font      *fontInfo
	size      float64
	charSpace float64
	wordSpace float64
	hscale    float64
	leading   float64
	rise      float64
}

type gstate struct {
	ctm matrix
	ts  textState
}

type interpreter struct {
	page  pdf.Page
	frame frame
	fonts map[string]*fontInfo

	gs    gstate
	stack []gstate
	tm    matrix
	tlm   matrix
	out   layout
}

func interpret(page pdf.Page, fr frame) (l *layout, err error) {
	defer recoverInto(&err)
	in := &interpreter{
		page:  page,
		frame: fr,
		fonts: map[string]*fontInfo{},
		gs:    gstate{ctm: identity, ts: textState{hscale: 1}},
		tm:    identity,
		tlm:   identity,
	}
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		pdf.Interpret(contents, in.do)
	case pdf.Array:
		// The parts of a content array form one stream; an operator may
		// take its operands from the previous part.
		joined, err := joinContents(contents)
		if err != nil {
			return nil, err
		}
		strm, err := streamOf(joined)
		if err != nil {
			return nil, err
		}
		pdf.Interpret(strm, in.do)
	case pdf.Null:
	default:
		return nil, fmt.Errorf("%w: contents of kind %v", ErrUnsupportedContent, contents.Kind())
	}
	return &in.out, nil
}

// joinContents concatenates the decoded parts of a /Contents array.
func joinContents(arr pdf.Value) ([]byte, error) {
	var buf bytes.Buffer
	for i := 0; i < arr.Len(); i++ {
		part := arr.Index(i)
		if part.Kind() != pdf.Stream {
			return nil, fmt.Errorf("%w: contents part %d of kind %v", ErrUnsupportedContent, i, part.Kind())
		}
		rc := part.Reader()
		_, err := io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("contents part %d: %w", i, err)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// streamOf wraps content in a single-page scratch document, because the
// tokenizer reads stream objects only.
func streamOf(content []byte) (pdf.Value, error) {
	raw := buildDocument([]string{string(content)})
	rd, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return pdf.Value{}, err
	}
	return rd.Page(1).V.Key("Contents"), nil
}

func (in *interpreter) do(stk *pdf.Stack, name string) {
	n := stk.Len()
	args := make([]pdf.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	in.out.ops = append(in.out.ops, op{name: name, args: args})
	idx := len(in.out.ops) - 1

	ts := &in.gs.ts
	switch name {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if len(in.stack) > 0 {
			in.gs = in.stack[len(in.stack)-1]
			in.stack = in.stack[:len(in.stack)-1]
		}
	case "cm":
		if m, ok := matrixArgs(args); ok {
			in.gs.ctm = m.mul(in.gs.ctm)
		}
	case "BT":
		in.tm, in.tlm = identity, identity
	case "Tf":
		if n == 2 {
			ts.font = in.font(args[0].Name())
			ts.size = args[1].Float64()
		}
	case "Tc":
		if n == 1 {
			ts.charSpace = args[0].Float64()
		}
	case "Tw":
		if n == 1 {
			ts.wordSpace = args[0].Float64()
		}
	case "Tz":
		if n == 1 {
			ts.hscale = args[0].Float64() / 100
		}
	case "TL":
		if n == 1 {
			ts.leading = args[0].Float64()
		}
	case "Ts":
		if n == 1 {
			ts.rise = args[0].Float64()
		}
	case "Td":
		if n == 2 {
			in.moveLine(args[0].Float64(), args[1].Float64())
		}
	case "TD":
		if n == 2 {
			ts.leading = -args[1].Float64()
			in.moveLine(args[0].Float64(), args[1].Float64())
		}
	case "Tm":
		if m, ok := matrixArgs(args); ok {
			in.tm, in.tlm = m, m
		}
	case "T*":
		in.moveLine(0, -ts.leading)
	case "Tj":
		if n >= 1 {
			in.show(idx, 0, args[n-1].RawString())
		}
	case "'":
		in.moveLine(0, -ts.leading)
		if n >= 1 {
			in.show(idx, 0, args[n-1].RawString())
		}
	case `"`:
		if n == 3 {
			ts.wordSpace = args[0].Float64()
			ts.charSpace = args[1].Float64()
		}
		in.moveLine(0, -ts.leading)
		if n >= 1 {
			in.show(idx, 0, args[n-1].RawString())
		}
	case "TJ":
		if n < 1 {
			return
		}
		arr := args[n-1]
		for i := 0; i < arr.Len(); i++ {
			el := arr.Index(i)
			switch el.Kind() {
			case pdf.String:
				in.show(idx, i, el.RawString())
			case pdf.Integer, pdf.Real:
				tx := -el.Float64() / 1000 * ts.size * ts.hscale
				in.tm = translate(tx, 0).mul(in.tm)
			}
		}
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = translate(tx, ty).mul(in.tlm)
	in.tm = in.tlm
}

func (in *interpreter) font(name string) *fontInfo {
	if fi, ok := in.fonts[name]; ok {
		return fi
	}
	var fi *fontInfo
	if f := in.page.Font(name); f.V.Kind() == pdf.Dict {
		fi = loadFont(f)
	} else {
		fi = fallbackFont()
	}
	in.fonts[name] = fi
	return fi
}

func (in *interpreter) show(opIdx, elem int, s string) {
	ts := &in.gs.ts
	fi := ts.font
	if fi == nil {
		fi = fallbackFont()
	}
	for _, code := range fi.codes(s) {
		w0 := fi.width(codeValue(code)) * fi.unit
		adv := w0*ts.size + ts.charSpace
		if len(code) == 1 && code[0] == ' ' {
			adv += ts.wordSpace
		}
		adv *= ts.hscale

		trm := in.tm.mul(in.gs.ctm)
		g := glyph{
			op:    opIdx,
			elem:  elem,
			code:  code,
			text:  fi.decode(code),
			adv:   adv,
			scale: ts.size * ts.hscale,
		}
		g.box = in.box(trm, max(adv, 0), ts.rise+fi.descent*ts.size, ts.rise+fi.ascent*ts.size)
		ox, oy := trm.apply(0, ts.rise)
		ex, ey := trm.apply(adv, ts.rise)
		g.origin = in.frame.toPage(ox, oy)
		g.end = in.frame.toPage(ex, ey)
		hx, hy := trm.apply(0, ts.rise+ts.size)
		g.height = dist(ox, oy, hx, hy)

		in.out.glyphs = append(in.out.glyphs, g)
		in.out.ops[opIdx].glyphs = append(in.out.ops[opIdx].glyphs, len(in.out.glyphs)-1)
		in.tm = translate(adv, 0).mul(in.tm)
	}
}

// box transforms the text space rectangle [0,w]×[y0,y1] into a page rect.
func (in *interpreter) box(m matrix, w, y0, y1 float64) types.Rect {
	r := types.Rect{X0: 1e18, Y0: 1e18, X1: -1e18, Y1: -1e18}
	for _, c := range [4][2]float64{{0, y0}, {w, y0}, {0, y1}, {w, y1}} {
		x, y := m.apply(c[0], c[1])
		p := in.frame.toPage(x, y)
		r.X0, r.X1 = min(r.X0, p.X), max(r.X1, p.X)
		r.Y0, r.Y1 = min(r.Y0, p.Y), max(r.Y1, p.Y)
	}
	return r
}

func matrixArgs(args []pdf.Value) (matrix, bool) {
	if len(args) != 6 {
		return identity, false
	}
	var m matrix
	for i, a := range args {
		m[i] = a.Float64()
	}
	return m, true
}

func dist(x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	return math.Sqrt(dx*dx + dy*dy)
}
