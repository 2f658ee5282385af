// Package parse reads TMX bytes into the tmx document model.
//
// The parser tokenizes with encoding/xml over a retained UTF-8 copy of the
// source and records the byte span of every unit and segment as it goes.
// The spans are what allow the writer to reproduce untouched units
// byte-for-byte. Non-UTF-8 inputs are transcoded up front; their spans then
// index the transcoded buffer and the writer transcodes back on save.
//
// Parsing is all-or-nothing: the document is built privately and returned
// only on success, so cancellation or a malformed tail never exposes a
// partial document.
package parse

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

// Progress is a snapshot of an in-flight parse, reported after each
// completed translation unit.
type Progress struct {
	// Units is the number of units fully parsed so far.
	Units int

	// Bytes is the input position, Total the input size, both in bytes of
	// the decoded source. Total is exact, not an estimate, because the
	// source is memory-resident.
	Bytes int64
	Total int64
}

// ProgressFunc receives progress snapshots. Sinks are advisory: a panicking
// sink is swallowed and never aborts the parse.
type ProgressFunc func(Progress)

// Option configures a parse.
type Option func(*parser)

// WithProgress registers a progress sink.
func WithProgress(fn ProgressFunc) Option {
	return func(p *parser) {
		if fn != nil {
			p.sinks = append(p.sinks, fn)
		}
	}
}

// WithProgressInterval reports progress every n units instead of every
// unit. The final unit always reports.
func WithProgressInterval(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.interval = n
		}
	}
}

type parser struct {
	sinks    []ProgressFunc
	interval int

	dec      *xml.Decoder
	src      []byte
	doc      *tmx.Document
	units    int
	reported int
}

// ParseFile parses a TMX file from disk.
func ParseFile(ctx context.Context, path string, opts ...Option) (*tmx.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Kind: KindIO, Err: err}
	}
	defer f.Close()

	doc, err := Parse(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse reads a complete TMX document from r. The error is always a
// *ParseError; on cancellation its kind is KindCancelled and no document
// is returned.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*tmx.Document, error) {
	p := &parser{interval: 1, reported: -1}
	for _, opt := range opts {
		opt(p)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: KindIO, Err: err}
	}

	src, encName, bom, err := decodeSource(data)
	if err != nil {
		return nil, &ParseError{Kind: KindMalformed, Err: err}
	}

	doc, err := p.parse(ctx, src)
	if err != nil {
		return nil, err
	}
	doc.SourceEncoding = encName
	doc.ByteOrderMark = bom
	return doc, nil
}

func (p *parser) parse(ctx context.Context, src []byte) (*tmx.Document, error) {
	p.src = src
	p.doc = tmx.NewDocument()
	p.doc.SetRetainedSource(src)
	p.dec = xml.NewDecoder(bytes.NewReader(src))
	// The source is already UTF-8; accept any declared charset as-is.
	p.dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}

	root, rootOff, err := p.findRoot()
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "tmx" {
		return nil, &ParseError{
			Kind:   KindNotTMX,
			Offset: rootOff,
			Err:    errors.New("root element is <" + root.Name.Local + ">"),
		}
	}
	p.doc.Prolog = string(src[:rootOff])
	p.doc.RootAttrs = convertAttrs(root.Attr)

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "header":
				if err := p.parseHeader(t); err != nil {
					return nil, err
				}
			case "body":
				if err := p.parseBody(ctx); err != nil {
					return nil, err
				}
			default:
				if err := p.dec.Skip(); err != nil {
					return nil, p.malformed(err)
				}
			}
		case xml.EndElement:
			p.doc.Epilog = string(src[p.dec.InputOffset():])
			// Unit counts are strictly increasing across snapshots; the
			// completion snapshot only goes out if a checkpoint has not
			// already reported the final unit.
			if p.units > p.reported {
				p.emitProgress(int64(len(src)))
			}
			return p.doc, nil
		}
	}
}

// findRoot skips the prolog (declaration, comments, doctype) and returns
// the root start element with its byte offset.
func (p *parser) findRoot() (xml.StartElement, int64, error) {
	for {
		off := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, 0, &ParseError{
				Kind:   KindMalformed,
				Offset: off,
				Err:    errors.New("missing root element"),
			}
		}
		if err != nil {
			return xml.StartElement{}, 0, p.malformed(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, off, nil
		}
	}
}

func (p *parser) parseHeader(start xml.StartElement) error {
	h := tmx.Header{Attrs: convertAttrs(start.Attr)}
	for {
		off := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			return p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.dec.Skip(); err != nil {
				return p.malformed(err)
			}
			h.Aux = append(h.Aux, tmx.RawBlock{
				Name: t.Name.Local,
				Raw:  string(p.src[off:p.dec.InputOffset()]),
			})
		case xml.EndElement:
			p.doc.Header = h
			return nil
		}
	}
}

func (p *parser) parseBody(ctx context.Context) error {
	for {
		off := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			return p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "tu" {
				if err := p.dec.Skip(); err != nil {
					return p.malformed(err)
				}
				continue
			}
			if err := p.parseUnit(t, off); err != nil {
				return err
			}
			p.units++
			if err := p.checkpoint(ctx); err != nil {
				return err
			}
		case xml.EndElement:
			if err := p.cancelled(ctx); err != nil {
				return err
			}
			p.doc.BodyInsert = off
			return nil
		}
	}
}

func (p *parser) parseUnit(start xml.StartElement, off int64) error {
	u := p.doc.AppendUnit(convertAttrs(start.Attr), nil)
	for {
		childOff := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			return p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tuv" {
				seg, err := p.parseVariant(t)
				if err != nil {
					return err
				}
				if seg != nil {
					u.SetVariant(seg)
				}
				continue
			}
			if err := p.dec.Skip(); err != nil {
				return p.malformed(err)
			}
			u.Aux = append(u.Aux, tmx.RawBlock{
				Name: t.Name.Local,
				Raw:  string(p.src[childOff:p.dec.InputOffset()]),
			})
		case xml.EndElement:
			u.Span = tmx.Span{Start: off, End: p.dec.InputOffset()}
			return nil
		}
	}
}

// parseVariant reads one tuv. A variant without a seg child is dropped, as
// the original format tolerates but cannot display them.
func (p *parser) parseVariant(start xml.StartElement) (*tmx.Segment, error) {
	attrs := convertAttrs(start.Attr)
	lang := attrs.Value("xml:lang")
	if lang == "" {
		lang = attrs.Value("lang")
	}
	if lang == "" {
		lang = "unknown"
	}
	seg := &tmx.Segment{Lang: lang, Attrs: attrs}
	hasSeg := false

	for {
		childOff := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "seg" && !hasSeg {
				hasSeg = true
				if err := p.parseSeg(childOff, seg); err != nil {
					return nil, err
				}
				continue
			}
			if err := p.dec.Skip(); err != nil {
				return nil, p.malformed(err)
			}
			seg.Aux = append(seg.Aux, tmx.RawBlock{
				Name: t.Name.Local,
				Raw:  string(p.src[childOff:p.dec.InputOffset()]),
			})
		case xml.EndElement:
			if !hasSeg {
				return nil, nil
			}
			return seg, nil
		}
	}
}

func (p *parser) parseSeg(elemOff int64, seg *tmx.Segment) error {
	contentStart := p.dec.InputOffset()
	runs, endStart, afterEnd, err := p.parseRuns()
	if err != nil {
		return err
	}
	seg.Runs = runs
	seg.ContentSpan = tmx.Span{Start: contentStart, End: endStart}
	seg.ElemSpan = tmx.Span{Start: elemOff, End: afterEnd}
	seg.SelfClosing = afterEnd == contentStart
	return nil
}

// parseRuns reads segment content up to the end tag of the enclosing
// element, recursing into inline markup. It returns the byte offset where
// the end tag starts and the offset just past it; those two being equal
// means the enclosing element was self-closing.
func (p *parser) parseRuns() (runs []tmx.Run, endStart, afterEnd int64, err error) {
	for {
		off := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			return nil, 0, 0, p.malformed(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			// Whitespace is significant inside seg; keep it verbatim.
			runs = append(runs, tmx.Text{Value: string(t)})
		case xml.StartElement:
			afterStart := p.dec.InputOffset()
			children, _, childEnd, err := p.parseRuns()
			if err != nil {
				return nil, 0, 0, err
			}
			runs = append(runs, &tmx.Tag{
				Name:        elementName(t.Name),
				Attrs:       convertAttrs(t.Attr),
				Children:    children,
				SelfClosing: childEnd == afterStart && len(children) == 0,
			})
		case xml.EndElement:
			return runs, off, p.dec.InputOffset(), nil
		}
	}
}

func (p *parser) checkpoint(ctx context.Context) error {
	if err := p.cancelled(ctx); err != nil {
		return err
	}
	if p.units%p.interval == 0 {
		p.emitProgress(p.dec.InputOffset())
	}
	return nil
}

func (p *parser) cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return &ParseError{Kind: KindCancelled, Offset: p.dec.InputOffset(), Err: ctx.Err()}
	default:
		return nil
	}
}

func (p *parser) emitProgress(pos int64) {
	pr := Progress{Units: p.units, Bytes: pos, Total: int64(len(p.src))}
	p.reported = p.units
	for _, fn := range p.sinks {
		emit(fn, pr)
	}
}

func emit(fn ProgressFunc, pr Progress) {
	defer func() {
		_ = recover()
	}()
	fn(pr)
}

func (p *parser) malformed(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{Kind: KindMalformed, Offset: p.dec.InputOffset(), Err: err}
}

// convertAttrs maps decoder attributes to the model's ordered form,
// reconstructing the written name for the xml and xmlns prefixes. Other
// namespace prefixes are not recoverable from encoding/xml; those
// attributes keep their local name, and source echo preserves the original
// spelling for untouched units.
func convertAttrs(attrs []xml.Attr) tmx.Attrs {
	if len(attrs) == 0 {
		return nil
	}
	out := make(tmx.Attrs, len(attrs))
	for i, a := range attrs {
		out[i] = tmx.Attr{Name: attrName(a.Name), Value: a.Value}
	}
	return out
}

func attrName(name xml.Name) string {
	switch name.Space {
	case "":
		return name.Local
	case "xml":
		return "xml:" + name.Local
	case "xmlns":
		return "xmlns:" + name.Local
	default:
		return name.Local
	}
}

func elementName(name xml.Name) string {
	if name.Space == "xml" {
		return "xml:" + name.Local
	}
	return name.Local
}
