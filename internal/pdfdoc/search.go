package pdfdoc

import (
	"math"
	"strings"

	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// wordGap is the horizontal gap, relative to the glyph height, above which
// two glyphs on a line are taken to be separated by a space.
const wordGap = 0.15

// pageText is the text of a layout in content order. owner maps every byte
// of text to the glyph it came from, or -1 for separators inferred from
// glyph positions.
type pageText struct {
	text  string
	owner []int
}

func buildText(l *layout) pageText {
	var (
		sb    strings.Builder
		owner []int
		prev  = -1
	)
	add := func(s string, g int) {
		sb.WriteString(s)
		for range len(s) {
			owner = append(owner, g)
		}
	}
	for i, g := range l.glyphs {
		if g.text == "" {
			continue
		}
		if prev >= 0 && !g.space() && !l.glyphs[prev].space() && separated(l.glyphs[prev], g) {
			add(" ", -1)
		}
		add(g.text, i)
		prev = i
	}
	return pageText{text: sb.String(), owner: owner}
}

func separated(a, b glyph) bool {
	h := max(a.height, b.height, 1)
	if math.Abs(b.origin.Y-a.end.Y) > h/2 {
		return true
	}
	gap := b.origin.X - a.end.X
	return gap > wordGap*h || gap < -h
}

// find returns the bounding box of every non-overlapping occurrence of
// needle, in page order.
func (pt pageText) find(l *layout, needle string) []types.Rect {
	if needle == "" {
		return nil
	}
	var hits []types.Rect
	for from := 0; from <= len(pt.text)-len(needle); {
		i := strings.Index(pt.text[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		var r types.Rect
		seen := -1
		for _, g := range pt.owner[start : start+len(needle)] {
			if g < 0 || g == seen {
				continue
			}
			seen = g
			r = r.Union(l.glyphs[g].box)
		}
		if !r.Empty() {
			hits = append(hits, r)
		}
		from = start + len(needle)
	}
	return hits
}
