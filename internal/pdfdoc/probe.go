package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
)

// Probe checks once, at startup, that the PDF stack can read a document and
// lay out the insertion font. A non-nil result means no edit can succeed.
func Probe() (err error) {
	defer recoverInto(&err)

	if !font.IsCoreFont(insertFont) {
		return fmt.Errorf("no metrics for core font %s", insertFont)
	}
	raw := NewTextDocument([]string{"probe"})

	lib := New(DefaultOptions())
	ctx, err := api.ReadContext(bytes.NewReader(raw), lib.configuration())
	if err != nil {
		return fmt.Errorf("pdfcpu: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("pdfcpu: %w", err)
	}

	rd, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("content reader: %w", err)
	}
	if rd.NumPage() != 1 {
		return errors.New("content reader: page tree not readable")
	}
	l, err := interpret(rd.Page(1), letter)
	if err != nil {
		return err
	}
	if got := buildText(l).text; got != "probe" {
		return fmt.Errorf("content reader: read %q from probe page", got)
	}
	return nil
}
