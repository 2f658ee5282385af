// Package write serializes a tmx document back to disk.
//
// Documents parsed from a file render by splicing: the output is the
// retained source buffer with only the edited segments' bytes replaced, so
// every untouched unit — and every untouched variant inside a dirty unit —
// is byte-identical to the input. Documents without a retained source fall
// back to a structural rendering with one fixed formatting rule.
//
// Saves are atomic: the output goes to a sibling temporary file which is
// renamed over the target only after the full write succeeds.
package write

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

// Option configures a save.
type Option func(*writer)

// WithBackup keeps the previous file contents in a .bak sibling.
func WithBackup(enabled bool) Option {
	return func(w *writer) {
		w.backup = enabled
	}
}

type writer struct {
	backup bool
}

// Write renders the document and atomically replaces path with the result.
// The returned error is always a *WriteError; on failure the target file
// and the document's dirty state are untouched. A successful save does not
// clear dirty flags — the caller acknowledges the save on its edit tracker.
func Write(doc *tmx.Document, path string, opts ...Option) error {
	var w writer
	for _, opt := range opts {
		opt(&w)
	}

	out, err := Render(doc)
	if err != nil {
		return err
	}
	return replaceFile(path, out, w.backup)
}

// Render produces the full output bytes in the document's source encoding
// without touching the filesystem.
func Render(doc *tmx.Document) ([]byte, error) {
	var out []byte
	if doc.Source() != nil {
		spliced, err := renderSpliced(doc)
		if err != nil {
			return nil, err
		}
		out = spliced
	} else {
		out = renderStructural(doc)
	}
	return encodeOutput(doc, out)
}

// replacement substitutes text for a span of the retained source.
type replacement struct {
	span tmx.Span
	text []byte
}

func renderSpliced(doc *tmx.Document) ([]byte, error) {
	src := doc.Source()
	var reps []replacement

	var appended []*tmx.Unit
	for _, u := range doc.Units() {
		if u.Span.IsZero() {
			appended = append(appended, u)
			continue
		}
		if !u.Dirty() {
			continue
		}
		unitReps, ok := segmentReplacements(src, u)
		if !ok {
			// An edited variant has no source location; rewrite the
			// whole unit structurally.
			var b bytes.Buffer
			renderUnit(&b, u, "        ")
			reps = append(reps, replacement{span: u.Span, text: bytes.TrimLeft(b.Bytes(), " ")})
			continue
		}
		reps = append(reps, unitReps...)
	}

	for _, span := range doc.RemovedSpans() {
		reps = append(reps, replacement{span: span})
	}

	if len(appended) > 0 {
		if doc.BodyInsert == 0 {
			// No body position recorded; splicing cannot place new units.
			return renderStructural(doc), nil
		}
		var b bytes.Buffer
		for _, u := range appended {
			renderUnit(&b, u, "        ")
		}
		at := doc.BodyInsert
		reps = append(reps, replacement{span: tmx.Span{Start: at, End: at}, text: b.Bytes()})
	}

	sort.SliceStable(reps, func(i, j int) bool {
		return reps[i].span.Start < reps[j].span.Start
	})

	var b bytes.Buffer
	b.Grow(len(src))
	var pos int64
	for _, r := range reps {
		if r.span.Start < pos || r.span.End > int64(len(src)) {
			return nil, &WriteError{
				Kind: KindIO,
				Err:  fmt.Errorf("inconsistent source span [%d,%d)", r.span.Start, r.span.End),
			}
		}
		b.Write(src[pos:r.span.Start])
		b.Write(r.text)
		pos = r.span.End
	}
	b.Write(src[pos:])
	return b.Bytes(), nil
}

// segmentReplacements builds per-variant replacements for a dirty unit.
// The second return is false when any edited variant lacks a source span.
func segmentReplacements(src []byte, u *tmx.Unit) ([]replacement, bool) {
	var reps []replacement
	for _, lang := range u.EditedLanguages() {
		seg := u.Variant(lang)
		if seg == nil {
			continue
		}
		if seg.ElemSpan.IsZero() {
			return nil, false
		}

		var content bytes.Buffer
		appendRuns(&content, seg.Runs)

		if !seg.SelfClosing {
			reps = append(reps, replacement{span: seg.ContentSpan, text: content.Bytes()})
			continue
		}

		// The seg was written as <seg/>; rebuild the element around the
		// new content, keeping the original start tag's attributes.
		raw := src[seg.ElemSpan.Start:seg.ElemSpan.End]
		var b bytes.Buffer
		b.Write(raw[:len(raw)-2])
		b.WriteByte('>')
		b.Write(content.Bytes())
		b.WriteString("</seg>")
		reps = append(reps, replacement{span: seg.ElemSpan, text: b.Bytes()})
	}
	return reps, true
}

// renderStructural serializes the whole document with canonical formatting:
// two-space nesting, seg content inline.
func renderStructural(doc *tmx.Document) []byte {
	var b bytes.Buffer

	if doc.Prolog != "" {
		b.WriteString(doc.Prolog)
	} else {
		enc := doc.SourceEncoding
		if enc == "" {
			enc = "UTF-8"
		}
		fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", enc)
	}

	b.WriteString("<tmx")
	if len(doc.RootAttrs) == 0 {
		b.WriteString(` version="1.4"`)
	} else {
		appendAttrs(&b, doc.RootAttrs)
	}
	b.WriteString(">\n")

	b.WriteString("  <header")
	appendAttrs(&b, doc.Header.Attrs)
	if len(doc.Header.Aux) == 0 {
		b.WriteString("/>\n")
	} else {
		b.WriteString(">\n")
		for _, aux := range doc.Header.Aux {
			b.WriteString("    ")
			b.WriteString(aux.Raw)
			b.WriteString("\n")
		}
		b.WriteString("  </header>\n")
	}

	b.WriteString("  <body>\n")
	for _, u := range doc.Units() {
		renderUnit(&b, u, "    ")
	}
	b.WriteString("  </body>\n")

	b.WriteString("</tmx>")
	if doc.Epilog != "" {
		b.WriteString(doc.Epilog)
	} else {
		b.WriteString("\n")
	}
	return b.Bytes()
}

func renderUnit(b *bytes.Buffer, u *tmx.Unit, indent string) {
	b.WriteString(indent)
	b.WriteString("<tu")
	appendAttrs(b, u.Attrs)
	b.WriteString(">\n")

	for _, aux := range u.Aux {
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(aux.Raw)
		b.WriteString("\n")
	}

	for _, seg := range u.Variants {
		b.WriteString(indent)
		b.WriteString("  <tuv")
		if seg.Lang != "" && seg.Attrs.Value("xml:lang") == "" {
			b.WriteString(` xml:lang="`)
			appendEscapedAttr(b, seg.Lang)
			b.WriteByte('"')
		}
		appendAttrs(b, seg.Attrs)
		b.WriteString(">\n")

		b.WriteString(indent)
		b.WriteString("    <seg>")
		appendRuns(b, seg.Runs)
		b.WriteString("</seg>\n")

		for _, aux := range seg.Aux {
			b.WriteString(indent)
			b.WriteString("    ")
			b.WriteString(aux.Raw)
			b.WriteString("\n")
		}

		b.WriteString(indent)
		b.WriteString("  </tuv>\n")
	}

	b.WriteString(indent)
	b.WriteString("</tu>\n")
}

func appendRuns(b *bytes.Buffer, runs []tmx.Run) {
	for _, r := range runs {
		switch r := r.(type) {
		case tmx.Text:
			appendEscapedText(b, r.Value)
		case *tmx.Tag:
			b.WriteByte('<')
			b.WriteString(r.Name)
			appendAttrs(b, r.Attrs)
			if r.SelfClosing && len(r.Children) == 0 {
				b.WriteString("/>")
				continue
			}
			b.WriteByte('>')
			appendRuns(b, r.Children)
			b.WriteString("</")
			b.WriteString(r.Name)
			b.WriteByte('>')
		}
	}
}

func appendAttrs(b *bytes.Buffer, attrs tmx.Attrs) {
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		appendEscapedAttr(b, a.Value)
		b.WriteByte('"')
	}
}

func appendEscapedText(b *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteByte(s[i])
		}
	}
}

func appendEscapedAttr(b *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteByte(s[i])
		}
	}
}
