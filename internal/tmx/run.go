package tmx

import "strings"

// Run is one piece of segment content: either plain character data or an
// inline markup element. The run sequence is the source of truth for
// serialization; PlainText is a derived projection used for search and
// display.
type Run interface {
	isRun()
}

// Text is a plain character-data run. Value holds decoded text (entity
// references already resolved); reserved characters are re-escaped on write.
type Text struct {
	Value string
}

func (Text) isRun() {}

// Tag is an inline markup element inside a segment: a TMX placeholder or
// pair tag (bpt, ept, ph, it, sub, hi) or any unrecognized extension.
// Attributes and children keep their source order.
type Tag struct {
	Name        string
	Attrs       Attrs
	Children    []Run
	SelfClosing bool
}

func (*Tag) isRun() {}

// PlainText returns the visible text of a run sequence: character data
// concatenated in order, descending into inline tags.
func PlainText(runs []Run) string {
	var b strings.Builder
	appendPlainText(&b, runs)
	return b.String()
}

func appendPlainText(b *strings.Builder, runs []Run) {
	for _, r := range runs {
		switch r := r.(type) {
		case Text:
			b.WriteString(r.Value)
		case *Tag:
			appendPlainText(b, r.Children)
		}
	}
}

// CloneRuns returns a deep copy of a run sequence. Snapshots taken for
// rollback must not alias the live tree.
func CloneRuns(runs []Run) []Run {
	if runs == nil {
		return nil
	}
	out := make([]Run, len(runs))
	for i, r := range runs {
		switch r := r.(type) {
		case Text:
			out[i] = r
		case *Tag:
			out[i] = &Tag{
				Name:        r.Name,
				Attrs:       r.Attrs.Clone(),
				Children:    CloneRuns(r.Children),
				SelfClosing: r.SelfClosing,
			}
		}
	}
	return out
}

// RunsEqual reports whether two run sequences are structurally identical:
// same run kinds, text, tag names, attribute order and values, and children.
func RunsEqual(a, b []Run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch ra := a[i].(type) {
		case Text:
			rb, ok := b[i].(Text)
			if !ok || ra.Value != rb.Value {
				return false
			}
		case *Tag:
			rb, ok := b[i].(*Tag)
			if !ok || !tagsEqual(ra, rb) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func tagsEqual(a, b *Tag) bool {
	if a.Name != b.Name || a.SelfClosing != b.SelfClosing {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	return RunsEqual(a.Children, b.Children)
}
