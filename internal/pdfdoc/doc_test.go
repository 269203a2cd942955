package pdfdoc_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/pdfeditor/internal/pdfdoc"
	"github.com/MalithGihan/pdfeditor/internal/pdfdoc/pdftest"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

var style12 = types.TextStyle{Size: 12, Color: types.Black}

func open(t *testing.T, path string) *pdfdoc.Document {
	t.Helper()
	doc, err := pdfdoc.New(pdfdoc.DefaultOptions()).Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc
}

func TestProbe(t *testing.T) {
	require.NoError(t, pdfdoc.Probe())
}

func TestPageSize(t *testing.T) {
	doc := open(t, pdftest.Sample(t, t.TempDir()))

	assert.Equal(t, 1, doc.PageCount())
	w, h, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 792.0, h)
}

func TestSearch(t *testing.T) {
	doc := open(t, pdftest.Sample(t, t.TempDir()))

	hits, err := doc.Search(1, "sample text")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// Baseline at 720 on a 792pt page, 12pt Helvetica.
	r := hits[0]
	top := 792 - pdfdoc.TextTop
	assert.Greater(t, r.X0, pdfdoc.TextLeft)
	assert.Greater(t, r.X1, r.X0)
	assert.InDelta(t, top-0.8*pdfdoc.TextSize, r.Y0, 0.01)
	assert.InDelta(t, top+0.2*pdfdoc.TextSize, r.Y1, 0.01)

	hits, err = doc.Search(1, "Second line")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, pdfdoc.TextLeft, hits[0].X0, 0.01)
	assert.Greater(t, hits[0].Y0, r.Y0)

	hits, err = doc.Search(1, "not on the page")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = doc.Search(1, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEveryOccurrence(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "multi.pdf", []string{"alpha beta", "beta gamma beta"})
	doc := open(t, path)

	hits, err := doc.Search(1, "beta")
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearchAcrossLines(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "lines.pdf", []string{"first", "second"})
	doc := open(t, path)

	hits, err := doc.Search(1, "first second")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRedactAndInsert(t *testing.T) {
	path := pdftest.Sample(t, t.TempDir())
	doc := open(t, path)

	hits, err := doc.Search(1, "sample text")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NoError(t, doc.Redact(1, hits[0]))
	require.NoError(t, doc.InsertText(1, hits[0].TopLeft(), "REPLACED TEXT!", style12))

	again, err := doc.Search(1, "sample text")
	require.NoError(t, err)
	assert.Empty(t, again, "queued redactions hide their text")

	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	text := pdftest.PageText(t, path, 1)
	assert.NotContains(t, text, "sample text")
	assert.Contains(t, text, "REPLACED TEXT!")

	edited := open(t, path)
	for _, s := range []string{"This is some", "that can be replaced.", "Second line of the page.", "REPLACED TEXT!"} {
		hits, err := edited.Search(1, s)
		require.NoError(t, err)
		assert.Len(t, hits, 1, s)
	}
	hits, err = edited.Search(1, "sample text")
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The words around the redaction keep their place.
	that, err := edited.Search(1, "that")
	require.NoError(t, err)
	require.Len(t, that, 1)
	assert.Greater(t, that[0].X0, sampleEnd(t))
}

// sampleEnd returns where "sample text" ends in an untouched sample.
func sampleEnd(t *testing.T) float64 {
	t.Helper()
	orig := pdftest.Sample(t, t.TempDir())
	doc := open(t, orig)
	hits, err := doc.Search(1, "sample text")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	return hits[0].X1
}

func TestInsertTextAtPoint(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "two.pdf", []string{"page one"}, []string{"page two"})
	before := pdftest.Content(t, path, 2)

	doc := open(t, path)
	require.NoError(t, doc.InsertText(1, types.Point{X: 100, Y: 200}, "Stamp", style12))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	edited := open(t, path)
	hits, err := edited.Search(1, "Stamp")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 100, hits[0].X0, 0.01)
	assert.InDelta(t, 200-0.8*12, hits[0].Y0, 0.01)

	hits, err = edited.Search(1, "page one")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	assert.Equal(t, before, pdftest.Content(t, path, 2))
}

func TestInsertMultiline(t *testing.T) {
	path := pdftest.Sample(t, t.TempDir())
	doc := open(t, path)
	require.NoError(t, doc.InsertText(1, types.Point{X: 50, Y: 300}, "upper\nlower", style12))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	edited := open(t, path)
	upper, err := edited.Search(1, "upper")
	require.NoError(t, err)
	lower, err := edited.Search(1, "lower")
	require.NoError(t, err)
	require.Len(t, upper, 1)
	require.Len(t, lower, 1)
	assert.InDelta(t, 12*1.2, lower[0].Y0-upper[0].Y0, 0.01)
}

func TestInsertTwiceAppends(t *testing.T) {
	path := pdftest.Sample(t, t.TempDir())
	for range 2 {
		doc := open(t, path)
		require.NoError(t, doc.InsertText(1, types.Point{X: 50, Y: 742}, "Footer", types.TextStyle{Size: 10}))
		require.NoError(t, doc.Save())
		require.NoError(t, doc.Close())
	}

	doc := open(t, path)
	hits, err := doc.Search(1, "Footer")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestClearPage(t *testing.T) {
	path := pdftest.Sample(t, t.TempDir())
	doc := open(t, path)
	require.NoError(t, doc.InsertText(1, types.Point{X: 10, Y: 10}, "dropped", style12))
	require.NoError(t, doc.ClearPage(1))
	require.NoError(t, doc.InsertText(1, types.Point{X: 50, Y: 100}, "Fresh", style12))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	assert.Equal(t, "Fresh", pdftest.PageText(t, path, 1))
}

func TestSaveWithoutEdits(t *testing.T) {
	path := pdftest.Sample(t, t.TempDir())
	doc := open(t, path)
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	assert.Contains(t, pdftest.PageText(t, path, 1), "sample text")
}

func TestPageRange(t *testing.T) {
	doc := open(t, pdftest.Sample(t, t.TempDir()))

	for _, n := range []int{0, 2, -1} {
		_, err := doc.Search(n, "x")
		assert.ErrorIs(t, err, pdfdoc.ErrPageRange, "page %d", n)
	}
	assert.ErrorIs(t, doc.InsertText(3, types.Point{}, "x", style12), pdfdoc.ErrPageRange)
}

func TestInvalidMutations(t *testing.T) {
	doc := open(t, pdftest.Sample(t, t.TempDir()))

	assert.Error(t, doc.Redact(1, types.Rect{}))
	assert.Error(t, doc.InsertText(1, types.Point{}, "x", types.TextStyle{}))
}

func TestClose(t *testing.T) {
	doc := open(t, pdftest.Sample(t, t.TempDir()))

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())
	_, err := doc.Search(1, "sample")
	assert.ErrorIs(t, err, pdfdoc.ErrClosed)
	assert.ErrorIs(t, doc.Save(), pdfdoc.ErrClosed)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	lib := pdfdoc.New(pdfdoc.DefaultOptions())

	_, err := lib.Open(dir + "/missing.pdf")
	assert.Error(t, err)

	junk := dir + "/junk.pdf"
	require.NoError(t, os.WriteFile(junk, []byte("not a pdf at all"), 0o644))
	_, err = lib.Open(junk)
	assert.Error(t, err)
}

func TestNewTextDocument(t *testing.T) {
	raw := pdfdoc.NewTextDocument([]string{`with (parens) and \ slash`})
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(raw, []byte("%%EOF\n")))

	path := pdftest.Write(t, t.TempDir(), "esc.pdf", []string{`with (parens) and \ slash`})
	assert.Equal(t, `with (parens) and \ slash`, pdftest.PageText(t, path, 1))
}

// splitPage is a one-page document whose content array breaks between the
// operand "(hello)" and its Tj. Resources and MediaBox come from the page
// tree root.
func splitPage(t *testing.T) string {
	t.Helper()
	return pdftest.WriteObjects(t, t.TempDir(), "split.pdf",
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> >>",
		pdftest.Helvetica,
		"<< /Type /Page /Parent 2 0 R /Contents [5 0 R 6 0 R] >>",
		pdftest.Stream("BT /F1 12 Tf 150 700 Td (hello)"),
		pdftest.Stream("Tj 0 -20 Td (world) Tj ET"),
	)
}

func TestContentArrayIsOneStream(t *testing.T) {
	path := splitPage(t)
	doc := open(t, path)

	hits, err := doc.Search(1, "hello world")
	require.NoError(t, err)
	require.Len(t, hits, 1, "both parts are read as one stream")

	hits, err = doc.Search(1, "world")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NoError(t, doc.Redact(1, hits[0]))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	content := string(pdftest.Content(t, path, 1))
	assert.Contains(t, content, "<68656c6c6f> Tj", "untouched text keeps its operand")
	assert.NotContains(t, content, "\nTj\n")

	text := pdftest.PageText(t, path, 1)
	assert.Contains(t, text, "hello")
	assert.NotContains(t, text, "world")
}

func TestInsertFlattensContentArray(t *testing.T) {
	path := splitPage(t)
	doc := open(t, path)
	require.NoError(t, doc.InsertText(1, types.Point{X: 50, Y: 50}, "Stamp", style12))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	text := pdftest.PageText(t, path, 1)
	assert.Contains(t, text, "hello")
	assert.Contains(t, text, "world")
	assert.Contains(t, text, "Stamp")
}

func TestOffsetMediaBox(t *testing.T) {
	path := pdftest.WriteObjects(t, t.TempDir(), "offset.pdf",
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 >>",
		pdftest.Helvetica,
		"<< /Type /Page /Parent 2 0 R /MediaBox [100 100 712 892] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>",
		pdftest.Stream("BT /F1 12 Tf 200 800 Td (offset box) Tj ET"),
	)
	doc := open(t, path)

	w, h, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 792.0, h)

	hits, err := doc.Search(1, "offset")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 100, hits[0].X0, 0.01)
	assert.InDelta(t, 92+0.2*12, hits[0].Y1, 0.01)
}

func TestRotatedPage(t *testing.T) {
	path := pdftest.WriteObjects(t, t.TempDir(), "rotated.pdf",
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 /Rotate 90 >>",
		pdftest.Helvetica,
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>",
		pdftest.Stream("BT /F1 12 Tf 72 720 Td (portrait) Tj ET"),
	)
	doc := open(t, path)

	w, h, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.Equal(t, 792.0, w)
	assert.Equal(t, 612.0, h)

	require.NoError(t, doc.InsertText(1, types.Point{X: 100, Y: 200}, "Stamp", style12))
	require.NoError(t, doc.Save())
	require.NoError(t, doc.Close())

	edited := open(t, path)
	hits, err := edited.Search(1, "Stamp")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	r := hits[0]
	assert.InDelta(t, 100, r.X0, 0.01)
	assert.InDelta(t, 200-0.8*12, r.Y0, 0.01)
	assert.InDelta(t, 200+0.2*12, r.Y1, 0.01)
	assert.Greater(t, r.X1-r.X0, r.Y1-r.Y0, "inserted text runs along the displayed width")
}
