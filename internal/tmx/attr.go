package tmx

// Attr is a single XML attribute with its original name, including any
// namespace prefix as written in the source (e.g. "xml:lang").
type Attr struct {
	Name  string
	Value string
}

// Attrs is an ordered attribute list. Order is preserved from the source so
// unknown attributes round-trip unchanged.
type Attrs []Attr

// Get returns the value of the named attribute and whether it was present.
func (a Attrs) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Value returns the value of the named attribute, or "" when absent.
func (a Attrs) Value(name string) string {
	v, _ := a.Get(name)
	return v
}

// Set replaces the value of the named attribute in place, or appends it
// when absent.
func (a Attrs) Set(name, value string) Attrs {
	for i, attr := range a {
		if attr.Name == name {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attr{Name: name, Value: value})
}

// Clone returns a copy of the attribute list.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}

// Span is a half-open byte range [Start, End) into a document's retained
// source buffer. The zero Span means "no source location".
type Span struct {
	Start int64
	End   int64
}

// IsZero reports whether the span carries no source location.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Len returns the span length in bytes.
func (s Span) Len() int64 {
	return s.End - s.Start
}

// RawBlock is an auxiliary element (note, prop, or an unrecognized
// extension) captured verbatim from the source, element tags included.
type RawBlock struct {
	Name string
	Raw  string
}
