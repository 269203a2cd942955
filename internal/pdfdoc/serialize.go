package pdfdoc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// writeOp appends an operator and its operands in content stream syntax.
func writeOp(buf *bytes.Buffer, name string, args []pdf.Value) {
	for _, a := range args {
		writeValue(buf, a)
		buf.WriteByte(' ')
	}
	buf.WriteString(name)
	buf.WriteByte('\n')
}

func writeValue(buf *bytes.Buffer, v pdf.Value) {
	switch v.Kind() {
	case pdf.Null:
		buf.WriteString("null")
	case pdf.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case pdf.Integer:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdf.Real:
		buf.WriteString(strconv.FormatFloat(v.Float64(), 'f', -1, 64))
	case pdf.String:
		writeHexString(buf, []byte(v.RawString()))
	case pdf.Name:
		writeName(buf, v.Name())
	case pdf.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeValue(buf, v.Index(i))
		}
		buf.WriteByte(']')
	case pdf.Dict:
		buf.WriteString("<<")
		for _, k := range v.Keys() {
			buf.WriteByte(' ')
			writeName(buf, k)
			buf.WriteByte(' ')
			writeValue(buf, v.Key(k))
		}
		buf.WriteString(" >>")
	default:
		panic(fmt.Errorf("%w: operand of kind %v", ErrUnsupportedContent, v.Kind()))
	}
}

func writeHexString(buf *bytes.Buffer, b []byte) {
	buf.WriteByte('<')
	buf.WriteString(hex.EncodeToString(b))
	buf.WriteByte('>')
}

func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7e || strings.IndexByte("#()<>[]{}/%", c) >= 0 {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

// formatNumber prints f without an exponent, as PDF requires.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimZeros(s)
	if s == "-0" {
		return "0"
	}
	return s
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
