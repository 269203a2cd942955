package types

// Page geometry uses a top-left origin with y growing downwards.
type Point struct{ X, Y float64 }

type Rect struct{ X0, Y0, X1, Y1 float64 }

func (r Rect) TopLeft() Point { return Point{r.X0, r.Y0} }

func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Union returns the smallest rect covering r and s. The zero Rect is the
// identity; degenerate rects such as zero-width glyph boxes still count.
func (r Rect) Union(s Rect) Rect {
	if r == (Rect{}) {
		return s
	}
	if s == (Rect{}) {
		return r
	}
	return Rect{min(r.X0, s.X0), min(r.Y0, s.Y0), max(r.X1, s.X1), max(r.Y1, s.Y1)}
}

type RGB struct{ R, G, B float64 }

var Black = RGB{}

type TextStyle struct {
	Size  float64
	Color RGB
}
