package tmx

// Segment is one language's rendering inside a translation unit: the
// variant's attributes and the seg element's content as a run sequence.
// A Segment is owned exclusively by its Unit.
type Segment struct {
	// Lang is the variant language code (the tuv xml:lang value).
	Lang string

	// Attrs holds the tuv attributes in source order, including xml:lang
	// and any creation/change metadata or unrecognized attributes.
	Attrs Attrs

	// Runs is the seg content. Whitespace is kept verbatim.
	Runs []Run

	// Aux holds note/prop/extension siblings of the seg element, verbatim.
	Aux []RawBlock

	// ElemSpan is the byte range of the whole seg element in the retained
	// source; ContentSpan is the range between the seg start and end tags.
	// Both are zero for segments that were not parsed from a file.
	ElemSpan    Span
	ContentSpan Span

	// SelfClosing records that the seg element was written as <seg/>.
	SelfClosing bool
}

// PlainText returns the segment's visible text.
func (s *Segment) PlainText() string {
	return PlainText(s.Runs)
}

// SetText replaces the segment content with a single plain run. Prior
// inline markup is collapsed; this is the plain-text edit path.
func (s *Segment) SetText(text string) {
	s.Runs = []Run{Text{Value: text}}
}
