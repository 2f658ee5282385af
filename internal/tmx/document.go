package tmx

import "strings"

// Document is the in-memory representation of one TMX file. It is the
// single owner of its header and units; every other component holds UnitID
// handles and resolves them through Unit.
type Document struct {
	// Header is the parsed TMX header.
	Header Header

	// RootAttrs holds the attributes of the tmx root element (version).
	RootAttrs Attrs

	// Prolog is everything before the root start tag, verbatim: the XML
	// declaration, DOCTYPE, and any comments. Epilog is everything after
	// the root end tag.
	Prolog string
	Epilog string

	// SourceEncoding is the IANA name of the encoding the file was read
	// with ("UTF-8" when undeclared). ByteOrderMark records whether the
	// file opened with a BOM.
	SourceEncoding string
	ByteOrderMark  bool

	// Path is the file the document was parsed from, "" for documents
	// built programmatically.
	Path string

	// BodyInsert is the byte offset of the body end tag in the retained
	// source. Units appended after parsing are serialized there.
	BodyInsert int64

	units    []*Unit
	byID     map[UnitID]*Unit
	nextID   UnitID
	src      []byte
	removed  []Span
	revision uint64
}

// NewDocument returns an empty document with no retained source.
func NewDocument() *Document {
	return &Document{
		SourceEncoding: "UTF-8",
		byID:           make(map[UnitID]*Unit),
		nextID:         1,
	}
}

// SetRetainedSource attaches the UTF-8 source buffer the document was
// parsed from. Unit and segment spans index into this buffer. Only the
// parser calls this, before handing the document over.
func (d *Document) SetRetainedSource(src []byte) {
	d.src = src
}

// Source returns the retained source buffer, nil for programmatic documents.
func (d *Document) Source() []byte {
	return d.src
}

// AppendUnit adds a unit to the end of the document, assigns its handle,
// and returns it.
func (d *Document) AppendUnit(attrs Attrs, variants []*Segment) *Unit {
	u := &Unit{
		ID:       d.nextID,
		Attrs:    attrs,
		Variants: variants,
	}
	d.nextID++
	d.units = append(d.units, u)
	d.byID[u.ID] = u
	d.revision++
	return u
}

// Unit resolves a handle. The second return is false when the unit was
// removed or never existed.
func (d *Document) Unit(id UnitID) (*Unit, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// Units returns the unit sequence in document order. Callers must not
// modify the returned slice.
func (d *Document) Units() []*Unit {
	return d.units
}

// Len returns the number of units.
func (d *Document) Len() int {
	return len(d.units)
}

// RemoveUnit deletes a unit from the document. Its source span, if any, is
// remembered so the writer drops those bytes from the output.
func (d *Document) RemoveUnit(id UnitID) bool {
	u, ok := d.byID[id]
	if !ok {
		return false
	}
	for i, candidate := range d.units {
		if candidate == u {
			d.units = append(d.units[:i], d.units[i+1:]...)
			break
		}
	}
	delete(d.byID, id)
	if !u.Span.IsZero() {
		d.removed = append(d.removed, u.Span)
	}
	d.revision++
	return true
}

// RemovedSpans returns the source spans of units removed since parsing.
func (d *Document) RemovedSpans() []Span {
	return d.removed
}

// Revision returns a counter that moves on every structural or content
// change. Views compare it to detect staleness.
func (d *Document) Revision() uint64 {
	return d.revision
}

// MarkChanged records a content change so dependent views refresh.
func (d *Document) MarkChanged() {
	d.revision++
}

// Dirty reports whether any unit has unsaved edits.
func (d *Document) Dirty() bool {
	for _, u := range d.units {
		if u.dirty {
			return true
		}
	}
	return false
}

// DirtyCount returns the number of units with unsaved edits.
func (d *Document) DirtyCount() int {
	n := 0
	for _, u := range d.units {
		if u.dirty {
			n++
		}
	}
	return n
}

// Languages returns every variant language in the document, ordered by
// first appearance.
func (d *Document) Languages() []string {
	var langs []string
	seen := make(map[string]bool)
	for _, u := range d.units {
		for _, v := range u.Variants {
			if !seen[v.Lang] {
				seen[v.Lang] = true
				langs = append(langs, v.Lang)
			}
		}
	}
	return langs
}

// SourceLanguage returns the header srclang when it names a concrete
// language, otherwise the first variant language found in the document.
func (d *Document) SourceLanguage() string {
	if src := d.Header.SourceLanguage(); src != "" && !strings.EqualFold(src, "*all*") {
		return src
	}
	for _, u := range d.units {
		if len(u.Variants) > 0 {
			return u.Variants[0].Lang
		}
	}
	return ""
}

// XMLDeclaration returns the raw XML declaration captured from the source,
// or "" when the source had none.
func (d *Document) XMLDeclaration() string {
	start := strings.Index(d.Prolog, "<?xml")
	if start < 0 {
		return ""
	}
	end := strings.Index(d.Prolog[start:], "?>")
	if end < 0 {
		return ""
	}
	return d.Prolog[start : start+end+2]
}

// LanguageCount pairs a language with the number of segments carrying it.
type LanguageCount struct {
	Lang  string
	Count int
}

// Stats summarizes a document for display: the unit total and per-language
// segment counts in first-appearance order.
type Stats struct {
	Units     int
	Languages []LanguageCount
}

// Stats computes summary statistics over the document.
func (d *Document) Stats() Stats {
	st := Stats{Units: len(d.units)}
	index := make(map[string]int)
	for _, u := range d.units {
		for _, v := range u.Variants {
			i, ok := index[v.Lang]
			if !ok {
				i = len(st.Languages)
				index[v.Lang] = i
				st.Languages = append(st.Languages, LanguageCount{Lang: v.Lang})
			}
			st.Languages[i].Count++
		}
	}
	return st
}
