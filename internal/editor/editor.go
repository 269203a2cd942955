// Package editor replaces text in PDF documents according to a locator.
package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MalithGihan/pdfeditor/internal/locator"
	"github.com/MalithGihan/pdfeditor/internal/logging"
	"github.com/MalithGihan/pdfeditor/internal/store"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// Placement of inserted text, in points from the top-left of the page.
const (
	replaceSize  = 12
	footerSize   = 10
	pageTextX    = 50
	pageTextY    = 100
	footerX      = 50
	footerMargin = 50
)

// Document is an open PDF. Pages are numbered from 1.
type Document interface {
	PageCount() int
	PageSize(n int) (width, height float64, err error)
	Search(n int, text string) ([]types.Rect, error)
	Redact(n int, r types.Rect) error
	InsertText(n int, at types.Point, text string, style types.TextStyle) error
	ClearPage(n int) error
	Save() error
	Close() error
}

type OpenFunc func(path string) (Document, error)

type Editor struct {
	open  OpenFunc
	store *store.FS
	log   *zap.Logger
}

func New(open OpenFunc, st *store.FS, log *zap.Logger) *Editor {
	if st == nil {
		st = store.New()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Editor{open: open, store: st, log: log}
}

// EditPDF applies loc to the document at path and saves it in place. Errors
// never escape; they are reported in the result.
func (e *Editor) EditPDF(ctx context.Context, path, newText, loc string) types.EditResult {
	l, err := locator.Parse(loc)
	if err != nil {
		return e.failed(path, err)
	}
	log := e.log.With(zap.String("path", path), zap.Stringer("locator", l.Kind()))

	backup, created, err := e.store.Backup(path)
	if err != nil {
		return e.failed(path, err)
	}
	log.Debug("backup", zap.String("backup", backup), zap.Bool("created", created))

	modified, err := e.edit(ctx, path, newText, l, log)
	if err != nil {
		return e.failed(path, err)
	}
	if modified == 0 {
		log.Info("locator matched nothing")
		return types.EditResult{
			Message:    fmt.Sprintf("No text found matching locator '%s' in PDF", loc),
			OutputPath: path,
		}
	}
	log.Info("document edited", zap.Int("modified_pages", modified))
	return types.EditResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully modified %d page(s) in PDF: %s", modified, path),
		ModifiedPages: modified,
		OutputPath:    path,
	}
}

func (e *Editor) failed(path string, err error) types.EditResult {
	e.log.Warn("edit failed", zap.String("path", path), zap.Error(err))
	return types.EditResult{Message: "Error editing PDF: " + err.Error()}
}

func (e *Editor) edit(ctx context.Context, path, newText string, l locator.Locator, log *zap.Logger) (modified int, err error) {
	doc, err := e.open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	pages := doc.PageCount()
	log.Debug("document opened", zap.Int("pages", pages))
	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		hit, err := applyPage(doc, n, newText, l)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", n, err)
		}
		if hit {
			log.Debug("page modified", zap.Int("page", n))
			modified++
		}
	}
	if err := doc.Save(); err != nil {
		return 0, err
	}
	return modified, nil
}

// applyPage runs l against page n and reports whether the page changed.
func applyPage(doc Document, n int, text string, l locator.Locator) (bool, error) {
	if !l.Matches(n) {
		return false, nil
	}
	switch v := l.(type) {
	case locator.Page:
		if err := doc.ClearPage(n); err != nil {
			return false, err
		}
		return true, doc.InsertText(n, types.Point{X: pageTextX, Y: pageTextY}, text, style(replaceSize))

	case locator.Coord:
		return true, doc.InsertText(n, types.Point{X: v.X, Y: v.Y}, text, style(replaceSize))

	case locator.All:
		_, h, err := doc.PageSize(n)
		if err != nil {
			return false, err
		}
		return true, doc.InsertText(n, types.Point{X: footerX, Y: h - footerMargin}, text, style(footerSize))
	}

	needle, _ := locator.SearchText(l)
	hits, err := doc.Search(n, needle)
	if err != nil || len(hits) == 0 {
		return false, err
	}
	for _, r := range hits {
		if err := doc.Redact(n, r); err != nil {
			return false, err
		}
		if err := doc.InsertText(n, r.TopLeft(), text, style(replaceSize)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func style(size float64) types.TextStyle {
	return types.TextStyle{Size: size, Color: types.Black}
}
