package pdfdoc

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// redact re-emits the layout without the glyphs whose centre falls inside
// one of rects. Text operators that lose glyphs become TJ arrays where each
// removed glyph is replaced by a kerning offset of the same advance, so the
// remaining text keeps its position.
func redact(l *layout, rects []types.Rect) []byte {
	removed := make([]bool, len(l.glyphs))
	for i, g := range l.glyphs {
		c := g.centre()
		for _, r := range rects {
			if r.Contains(c) {
				removed[i] = true
				break
			}
		}
	}

	var buf bytes.Buffer
	for _, o := range l.ops {
		if !o.showsText() || !anyRemoved(o.glyphs, removed) {
			writeOp(&buf, o.name, o.args)
			continue
		}
		switch o.name {
		case "'":
			buf.WriteString("T*\n")
		case `"`:
			if len(o.args) == 3 {
				writeValue(&buf, o.args[0])
				buf.WriteString(" Tw ")
				writeValue(&buf, o.args[1])
				buf.WriteString(" Tc\n")
			}
			buf.WriteString("T*\n")
		}
		writeTJ(&buf, l, o, removed)
	}
	return buf.Bytes()
}

func anyRemoved(idx []int, removed []bool) bool {
	for _, i := range idx {
		if removed[i] {
			return true
		}
	}
	return false
}

func writeTJ(buf *bytes.Buffer, l *layout, o op, removed []bool) {
	var (
		parts []string
		run   []byte
	)
	flush := func() {
		if len(run) > 0 {
			var b bytes.Buffer
			writeHexString(&b, run)
			parts = append(parts, b.String())
			run = nil
		}
	}

	// Kerning numbers of a TJ operand are kept in place; everything else is
	// rebuilt from the glyph list.
	next := 0
	emitElem := func(elem int) {
		for next < len(o.glyphs) && l.glyphs[o.glyphs[next]].elem == elem {
			gi := o.glyphs[next]
			g := l.glyphs[gi]
			if !removed[gi] {
				run = append(run, g.code...)
			} else if g.scale != 0 {
				flush()
				parts = append(parts, formatNumber(-g.adv*1000/g.scale))
			}
			next++
		}
	}
	if o.name == "TJ" && len(o.args) > 0 {
		arr := o.args[len(o.args)-1]
		for i := 0; i < arr.Len(); i++ {
			el := arr.Index(i)
			if el.Kind() == pdf.String {
				emitElem(i)
				continue
			}
			flush()
			var b bytes.Buffer
			writeValue(&b, el)
			parts = append(parts, b.String())
		}
	} else {
		emitElem(0)
	}
	flush()

	buf.WriteByte('[')
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(p)
	}
	buf.WriteString("] TJ\n")
}
