// Package pdfdoc opens a PDF, finds and redacts text on its pages, stamps new
// text and writes the result back over the original file.
//
// The document model and the writer come from pdfcpu. Page content streams
// are tokenized with ledongthuc/pdf and interpreted here to place glyphs, so
// searches and redactions work on real glyph boxes. Mutations are queued per
// page and applied by Save.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/MalithGihan/pdfeditor/internal/logging"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

var (
	ErrPageRange          = errors.New("page out of range")
	ErrUnsupportedContent = errors.New("unsupported page content")
	ErrClosed             = errors.New("document closed")
	errSaved              = errors.New("document already saved")
)

const (
	fontResPrefix = "PEHelv"
	maxTreeDepth  = 64
)

// US Letter, for pages that declare no media box.
var letter = frame{urx: 612, ury: 792}

func init() {
	// Keep pdfcpu from creating a config directory in the user's home.
	api.DisableConfigDir()
}

type Options struct {
	// Optimize runs pdfcpu's optimizer before writing.
	Optimize bool
	// ObjectStreams writes compressed object and xref streams.
	ObjectStreams bool
	Strict        bool
	Logger        *zap.Logger
}

func DefaultOptions() Options {
	return Options{Optimize: true, ObjectStreams: true}
}

type Library struct{ opts Options }

func New(opts Options) *Library {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Library{opts: opts}
}

func (l *Library) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if l.opts.Strict {
		conf.ValidationMode = model.ValidationStrict
	}
	conf.WriteObjectStream = l.opts.ObjectStreams
	conf.WriteXRefStream = l.opts.ObjectStreams
	return conf
}

type Document struct {
	path string
	opts Options
	log  *zap.Logger

	ctx  *model.Context
	file *os.File
	rd   *pdf.Reader

	pages   map[int]*pageState
	fontRef *pdftypes.IndirectRef
	saved   bool
	closed  bool
}

type pageState struct {
	frame      frame
	layout     *layout
	redactions []types.Rect
	inserts    []insertion
	cleared    bool
}

func (st *pageState) dirty() bool {
	return st.cleared || len(st.redactions) > 0 || len(st.inserts) > 0
}

// Open reads path into memory for editing. The file stays open for reading
// page content until Save or Close.
func (l *Library) Open(path string) (doc *Document, err error) {
	defer recoverInto(&err)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx, err := api.ReadContext(bytes.NewReader(raw), l.configuration())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	pf, rd, err := openContent(path, ctx.PageCount)
	if err != nil {
		return nil, err
	}

	l.opts.Logger.Debug("opened document", zap.String("path", path), zap.Int("pages", ctx.PageCount))
	return &Document{
		path:  path,
		opts:  l.opts,
		log:   l.opts.Logger,
		ctx:   ctx,
		file:  pf,
		rd:    rd,
		pages: map[int]*pageState{},
	}, nil
}

// Seams for the content reader.
var (
	openReader = pdf.Open
	countPages = (*pdf.Reader).NumPage
)

// openContent opens path for reading page content and checks that it sees
// the same page tree as the document model. The file is closed on every
// failure, including a panic inside the reader.
func openContent(path string, pages int) (f *os.File, rd *pdf.Reader, err error) {
	f, rd, err = openReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open content of %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			f, rd = nil, nil
		}
	}()
	defer recoverInto(&err)

	if n := countPages(rd); n != pages {
		return f, rd, fmt.Errorf("page tree mismatch: %d pages vs %d", n, pages)
	}
	return f, rd, nil
}

func (d *Document) PageCount() int { return d.ctx.PageCount }

// PageSize returns the width and height of the visible page area.
func (d *Document) PageSize(n int) (float64, float64, error) {
	st, err := d.page(n)
	if err != nil {
		return 0, 0, err
	}
	return st.frame.width(), st.frame.height(), nil
}

// Search returns the box of every occurrence of text on page n. Text already
// queued for redaction is not found again.
func (d *Document) Search(n int, text string) (rects []types.Rect, err error) {
	defer recoverInto(&err)
	st, err := d.page(n)
	if err != nil || st.cleared {
		return nil, err
	}
	l, err := d.layoutOf(n, st)
	if err != nil {
		return nil, err
	}
	if len(st.redactions) > 0 {
		l = visible(l, st.redactions)
	}
	rects = buildText(l).find(l, text)
	d.log.Debug("search", zap.Int("page", n), zap.String("text", text), zap.Int("hits", len(rects)))
	return rects, nil
}

// Redact queues the removal of every glyph whose centre lies in r, and a
// white fill over r.
func (d *Document) Redact(n int, r types.Rect) error {
	st, err := d.page(n)
	if err != nil {
		return err
	}
	if r.Empty() {
		return fmt.Errorf("redact page %d: empty rect %v", n, r)
	}
	st.redactions = append(st.redactions, r)
	return nil
}

// InsertText queues text drawn with its first baseline at at.
func (d *Document) InsertText(n int, at types.Point, text string, style types.TextStyle) error {
	st, err := d.page(n)
	if err != nil {
		return err
	}
	if style.Size <= 0 {
		return fmt.Errorf("insert on page %d: font size %v", n, style.Size)
	}
	st.inserts = append(st.inserts, insertion{at: at, text: text, style: style})
	return nil
}

// ClearPage drops the page's existing content and anything queued for it.
func (d *Document) ClearPage(n int) error {
	st, err := d.page(n)
	if err != nil {
		return err
	}
	st.cleared = true
	st.redactions, st.inserts = nil, nil
	return nil
}

// Save applies the queued edits and writes the document over its original
// path. The write is not atomic.
func (d *Document) Save() (err error) {
	if err := d.usable(); err != nil {
		return err
	}
	defer recoverInto(&err)

	nums := make([]int, 0, len(d.pages))
	for n, st := range d.pages {
		if st.dirty() {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	for _, n := range nums {
		if err := d.apply(n, d.pages[n]); err != nil {
			return fmt.Errorf("page %d: %w", n, err)
		}
	}

	d.saved = true
	d.closeContent()

	if d.opts.Optimize {
		if err := api.OptimizeContext(d.ctx); err != nil {
			return fmt.Errorf("optimize: %w", err)
		}
	}
	f, err := os.Create(d.path)
	if err != nil {
		return err
	}
	if err := api.WriteContext(d.ctx, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.log.Debug("saved document", zap.String("path", d.path), zap.Ints("pages", nums))
	return nil
}

// Close releases the file handle. It is safe to call more than once.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.closeContent()
}

func (d *Document) closeContent() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.rd = nil, nil
	return err
}

func (d *Document) usable() error {
	switch {
	case d.closed:
		return ErrClosed
	case d.saved:
		return errSaved
	}
	return nil
}

func (d *Document) page(n int) (*pageState, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if n < 1 || n > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, n, d.ctx.PageCount)
	}
	if st, ok := d.pages[n]; ok {
		return st, nil
	}
	pageDict, _, _, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	if pageDict == nil {
		return nil, fmt.Errorf("%w: page %d not in page tree", ErrPageRange, n)
	}
	fr, err := d.pageFrame(pageDict)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	st := &pageState{frame: fr}
	d.pages[n] = st
	return st, nil
}

func (d *Document) layoutOf(n int, st *pageState) (*layout, error) {
	if st.layout != nil {
		return st.layout, nil
	}
	l, err := interpret(d.rd.Page(n), st.frame)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	st.layout = l
	return l, nil
}

// visible returns l without the glyphs covered by rects.
func visible(l *layout, rects []types.Rect) *layout {
	out := &layout{ops: l.ops}
	for _, g := range l.glyphs {
		hidden := false
		for _, r := range rects {
			if r.Contains(g.centre()) {
				hidden = true
				break
			}
		}
		if !hidden {
			out.glyphs = append(out.glyphs, g)
		}
	}
	return out
}

func (d *Document) apply(n int, st *pageState) error {
	pageDict, _, _, err := d.ctx.PageDict(n, false)
	if err != nil {
		return err
	}
	var fontRes string
	if len(st.inserts) > 0 {
		if fontRes, err = d.ensureFont(pageDict); err != nil {
			return err
		}
	}
	additions := func(buf *bytes.Buffer) error {
		for _, ins := range st.inserts {
			if err := writeInsertion(buf, st.frame, fontRes, ins); err != nil {
				return err
			}
		}
		return nil
	}

	var body bytes.Buffer
	switch {
	case st.cleared:
		if err := additions(&body); err != nil {
			return err
		}
		return d.replaceContents(pageDict, body.Bytes())

	case len(st.redactions) > 0:
		l, err := d.layoutOf(n, st)
		if err != nil {
			return err
		}
		body.WriteString("q\n")
		body.Write(redact(l, st.redactions))
		body.WriteString("Q\n")
		for _, r := range st.redactions {
			writeFill(&body, st.frame, r)
		}
		if err := additions(&body); err != nil {
			return err
		}
		return d.replaceContents(pageDict, body.Bytes())
	}

	existing, err := d.pageContent(n)
	if err != nil {
		return err
	}
	body.WriteString("q\n")
	body.Write(existing)
	body.WriteString("\nQ\n")
	if err := additions(&body); err != nil {
		return err
	}
	return d.replaceContents(pageDict, body.Bytes())
}

func (d *Document) replaceContents(pageDict pdftypes.Dict, content []byte) error {
	ref, err := d.newStream(content)
	if err != nil {
		return err
	}
	pageDict.Update("Contents", *ref)
	return nil
}

func (d *Document) newStream(content []byte) (*pdftypes.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// pageContent returns the decoded content of page n as one stream.
func (d *Document) pageContent(n int) ([]byte, error) {
	contents := d.rd.Page(n).V.Key("Contents")
	switch contents.Kind() {
	case pdf.Null:
		return nil, nil
	case pdf.Array:
		return joinContents(contents)
	case pdf.Stream:
		rc := contents.Reader()
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: contents of kind %v", ErrUnsupportedContent, contents.Kind())
}

// ensureFont makes the insertion font available in the page's font resources
// and returns its resource name.
func (d *Document) ensureFont(pageDict pdftypes.Dict) (string, error) {
	res, err := d.ownResources(pageDict)
	if err != nil {
		return "", err
	}
	var fonts pdftypes.Dict
	if o, found := res.Find("Font"); found && o != nil {
		if fonts, err = d.ctx.DereferenceDict(o); err != nil {
			return "", err
		}
	}
	if fonts == nil {
		fonts = pdftypes.NewDict()
		res.Update("Font", fonts)
	}

	names := make([]string, 0, len(fonts))
	for k := range fonts {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if d.isInsertFont(fonts[k]) {
			return k, nil
		}
	}

	if d.fontRef == nil {
		fd := pdftypes.Dict(map[string]pdftypes.Object{
			"Type":     pdftypes.Name("Font"),
			"Subtype":  pdftypes.Name("Type1"),
			"BaseFont": pdftypes.Name(insertFont),
			"Encoding": pdftypes.Name("WinAnsiEncoding"),
		})
		if d.fontRef, err = d.ctx.IndRefForNewObject(fd); err != nil {
			return "", err
		}
	}
	name := fontResPrefix
	for i := 1; ; i++ {
		if _, taken := fonts.Find(name); !taken {
			break
		}
		name = fmt.Sprintf("%s%d", fontResPrefix, i)
	}
	fonts.Update(name, *d.fontRef)
	return name, nil
}

// isInsertFont reports whether o is a plain WinAnsi Helvetica, as created by
// a previous edit.
func (d *Document) isInsertFont(o pdftypes.Object) bool {
	fd, err := d.ctx.DereferenceDict(o)
	if err != nil || fd == nil {
		return false
	}
	name := func(k string) string {
		if v, ok := fd.Find(k); ok {
			if n, ok := v.(pdftypes.Name); ok {
				return string(n)
			}
		}
		return ""
	}
	_, hasWidths := fd.Find("Widths")
	return name("Subtype") == "Type1" && name("BaseFont") == insertFont &&
		name("Encoding") == "WinAnsiEncoding" && !hasWidths
}

// ownResources returns the page's resource dictionary, copying inherited
// resources onto the page first when it has none of its own.
func (d *Document) ownResources(pageDict pdftypes.Dict) (pdftypes.Dict, error) {
	if o, found := pageDict.Find("Resources"); found && o != nil {
		res, err := d.ctx.DereferenceDict(o)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	inh, err := d.inherited(pageDict, "Resources")
	if err != nil {
		return nil, err
	}
	res := pdftypes.NewDict()
	if dict, ok := inh.(pdftypes.Dict); ok {
		res = dict.Clone().(pdftypes.Dict)
	}
	pageDict.Update("Resources", res)
	return res, nil
}

// inherited looks key up on the page and then its ancestors.
func (d *Document) inherited(pageDict pdftypes.Dict, key string) (pdftypes.Object, error) {
	dict := pageDict
	for depth := 0; dict != nil && depth < maxTreeDepth; depth++ {
		if o, found := dict.Find(key); found && o != nil {
			return d.ctx.Dereference(o)
		}
		parent, found := dict.Find("Parent")
		if !found {
			break
		}
		next, err := d.ctx.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		dict = next
	}
	return nil, nil
}

func (d *Document) pageFrame(pageDict pdftypes.Dict) (frame, error) {
	for _, key := range []string{"CropBox", "MediaBox"} {
		o, err := d.inherited(pageDict, key)
		if err != nil {
			return frame{}, err
		}
		arr, ok := o.(pdftypes.Array)
		if !ok || len(arr) != 4 {
			continue
		}
		var v [4]float64
		valid := true
		for i, e := range arr {
			obj, err := d.ctx.Dereference(e)
			if err != nil {
				return frame{}, err
			}
			if v[i], ok = number(obj); !ok {
				valid = false
			}
		}
		if valid && v[0] != v[2] && v[1] != v[3] {
			rot, err := d.rotation(pageDict)
			if err != nil {
				return frame{}, err
			}
			return frame{min(v[0], v[2]), min(v[1], v[3]), max(v[0], v[2]), max(v[1], v[3]), rot}, nil
		}
	}
	rot, err := d.rotation(pageDict)
	if err != nil {
		return frame{}, err
	}
	fr := letter
	fr.rot = rot
	return fr, nil
}

// rotation returns the inherited /Rotate as 0, 90, 180 or 270. Values that
// are not a multiple of 90 are ignored.
func (d *Document) rotation(pageDict pdftypes.Dict) (int, error) {
	o, err := d.inherited(pageDict, "Rotate")
	if err != nil || o == nil {
		return 0, err
	}
	v, ok := number(o)
	if !ok || v != float64(int(v)) {
		return 0, nil
	}
	rot := int(v) % 360
	if rot < 0 {
		rot += 360
	}
	if rot%90 != 0 {
		return 0, nil
	}
	return rot, nil
}

func number(o pdftypes.Object) (float64, bool) {
	switch v := o.(type) {
	case pdftypes.Integer:
		return float64(v), true
	case pdftypes.Float:
		return float64(v), true
	}
	return 0, false
}

// recoverInto turns a panic raised inside the PDF libraries into an error.
func recoverInto(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = fmt.Errorf("pdf: %w", e)
		return
	}
	*err = fmt.Errorf("pdf: %v", r)
}
