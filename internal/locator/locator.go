// Package locator parses the expressions that select where replacement text
// goes in a document.
//
//	page:<n>            clear page n and write the text on it
//	find:<text>         replace every occurrence of text
//	coord:<x>,<y>,<n>   write the text at (x, y) on page n
//	all                 write the text near the bottom of every page
//	<anything else>     same as find:<anything else>
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid locator")

type Kind int

const (
	KindDefault Kind = iota
	KindPage
	KindFind
	KindCoord
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindFind:
		return "find"
	case KindCoord:
		return "coord"
	case KindAll:
		return "all"
	}
	return "default"
}

// Locator is one of Page, Find, Coord, All or Default.
type Locator interface {
	Kind() Kind
	// Matches reports whether the 1-based page n is a target.
	Matches(n int) bool
	String() string
}

type Page struct{ N int }

type Find struct{ Text string }

// Coord is incomplete when fewer than three fields were given; it then
// matches no page.
type Coord struct {
	X, Y     float64
	Page     int
	Complete bool
	raw      string
}

type All struct{}

type Default struct{ Text string }

func (Page) Kind() Kind { return KindPage }
func (Find) Kind() Kind { return KindFind }
func (Coord) Kind() Kind { return KindCoord }
func (All) Kind() Kind { return KindAll }
func (Default) Kind() Kind { return KindDefault }

func (l Page) Matches(n int) bool { return n == l.N }
func (l Find) Matches(int) bool { return l.Text != "" }
func (l Coord) Matches(n int) bool { return l.Complete && n == l.Page }
func (All) Matches(int) bool { return true }
func (l Default) Matches(int) bool { return l.Text != "" }

func (l Page) String() string { return "page:" + strconv.Itoa(l.N) }
func (l Find) String() string { return "find:" + l.Text }
func (l Coord) String() string {
	if !l.Complete {
		return "coord:" + l.raw
	}
	return fmt.Sprintf("coord:%s,%s,%d", fmtFloat(l.X), fmtFloat(l.Y), l.Page)
}
func (All) String() string { return "all" }
func (l Default) String() string { return l.Text }

// SearchText returns the literal text searched for by Find and Default.
func SearchText(l Locator) (string, bool) {
	switch v := l.(type) {
	case Find:
		return v.Text, true
	case Default:
		return v.Text, true
	}
	return "", false
}

func Parse(s string) (Locator, error) {
	switch {
	case strings.HasPrefix(s, "page:"):
		field := segment(s)
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%w: page number %q", ErrInvalid, field)
		}
		return Page{N: n}, nil

	case strings.HasPrefix(s, "find:"):
		return Find{Text: s[len("find:"):]}, nil

	case strings.HasPrefix(s, "coord:"):
		field := segment(s)
		parts := strings.Split(field, ",")
		if len(parts) < 3 {
			return Coord{raw: field}, nil
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: x coordinate %q", ErrInvalid, parts[0])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: y coordinate %q", ErrInvalid, parts[1])
		}
		p, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: page number %q", ErrInvalid, parts[2])
		}
		return Coord{X: x, Y: y, Page: p, Complete: true, raw: field}, nil

	case s == "all":
		return All{}, nil
	}
	return Default{Text: s}, nil
}

// segment returns the text between the first and second colon.
func segment(s string) string {
	rest := s[strings.IndexByte(s, ':')+1:]
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return rest
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
