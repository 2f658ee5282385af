package tmx

// Header is the TMX header: its attributes (srclang, datatype, segtype,
// creationtool, o-tmf, and anything unrecognized) in source order, plus any
// auxiliary note/prop elements captured verbatim.
type Header struct {
	Attrs Attrs
	Aux   []RawBlock
}

// SourceLanguage returns the header srclang attribute, or "" when absent.
// The TMX wildcard value "*all*" is returned as-is; callers that need a
// concrete language fall back to Document.SourceLanguage.
func (h *Header) SourceLanguage() string {
	return h.Attrs.Value("srclang")
}
