package tmx

// UnitID is a stable opaque handle to a translation unit within one
// Document. IDs are never reused, so a handle to a removed unit simply
// stops resolving.
type UnitID uint64

// Unit is a single translation unit: its attributes, its ordered language
// variants, and its dirty/rollback state. Units are owned exclusively by
// their Document and referenced elsewhere by UnitID.
type Unit struct {
	// ID is the document-assigned handle.
	ID UnitID

	// Attrs holds the tu attributes in source order. tuid, when present in
	// the source, stays here exactly as read.
	Attrs Attrs

	// Variants are the language segments in source order. Languages are
	// unique within a unit.
	Variants []*Segment

	// Aux holds tu-level note/prop/extension elements, verbatim.
	Aux []RawBlock

	// Span is the byte range of the whole tu element in the retained
	// source; zero for units not parsed from a file.
	Span Span

	dirty    bool
	baseline map[string][]Run
}

// TUID returns the unit's tuid attribute, or "" when the source omitted it.
func (u *Unit) TUID() string {
	return u.Attrs.Value("tuid")
}

// Variant returns the segment for the given language, or nil.
func (u *Unit) Variant(lang string) *Segment {
	for _, v := range u.Variants {
		if v.Lang == lang {
			return v
		}
	}
	return nil
}

// Languages returns the variant languages in source order.
func (u *Unit) Languages() []string {
	langs := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		langs[i] = v.Lang
	}
	return langs
}

// SetVariant adds a segment to the unit. A segment with an already-present
// language replaces the existing variant in place, keeping its position.
func (u *Unit) SetVariant(seg *Segment) {
	for i, v := range u.Variants {
		if v.Lang == seg.Lang {
			u.Variants[i] = seg
			return
		}
	}
	u.Variants = append(u.Variants, seg)
}

// Dirty reports whether any variant currently differs from the unit's
// rollback baseline.
func (u *Unit) Dirty() bool {
	return u.dirty
}

// CaptureBaseline records the current variant content as the rollback
// baseline. The first capture in the unit's lifetime wins; later calls
// before ClearBaseline are no-ops, so the baseline always reflects the
// last-saved (or as-loaded) state.
func (u *Unit) CaptureBaseline() {
	if u.baseline != nil {
		return
	}
	u.baseline = make(map[string][]Run, len(u.Variants))
	for _, v := range u.Variants {
		u.baseline[v.Lang] = CloneRuns(v.Runs)
	}
}

// HasBaseline reports whether a rollback baseline has been captured.
func (u *Unit) HasBaseline() bool {
	return u.baseline != nil
}

// BaselineRuns returns the baseline content for a language.
func (u *Unit) BaselineRuns(lang string) ([]Run, bool) {
	runs, ok := u.baseline[lang]
	return runs, ok
}

// RestoreVariant reverts a variant to its baseline content. It reports
// whether a baseline for the language existed.
func (u *Unit) RestoreVariant(lang string) bool {
	runs, ok := u.baseline[lang]
	if !ok {
		return false
	}
	seg := u.Variant(lang)
	if seg == nil {
		return false
	}
	seg.Runs = CloneRuns(runs)
	return true
}

// RefreshDirty recomputes the dirty flag by comparing every variant against
// the baseline, and returns the new value. A unit with no baseline is clean.
func (u *Unit) RefreshDirty() bool {
	u.dirty = false
	if u.baseline == nil {
		return false
	}
	for _, v := range u.Variants {
		base, ok := u.baseline[v.Lang]
		if !ok || !RunsEqual(v.Runs, base) {
			u.dirty = true
			break
		}
	}
	return u.dirty
}

// ClearBaseline drops the rollback baseline and marks the unit clean. Called
// after a successful save: the current content becomes the new baseline.
func (u *Unit) ClearBaseline() {
	u.baseline = nil
	u.dirty = false
}

// EditedLanguages returns the languages whose content currently differs
// from the baseline, in variant order. Empty for clean units.
func (u *Unit) EditedLanguages() []string {
	if u.baseline == nil {
		return nil
	}
	var langs []string
	for _, v := range u.Variants {
		base, ok := u.baseline[v.Lang]
		if !ok || !RunsEqual(v.Runs, base) {
			langs = append(langs, v.Lang)
		}
	}
	return langs
}
