// Package tmx defines the in-memory model for a TMX (Translation Memory
// eXchange) document: a header, an ordered list of translation units, and
// per-language segments whose content is an ordered sequence of runs.
//
// The model is built for round-trip fidelity rather than validation:
//
//   - Attributes are ordered slices, never maps, so unknown attributes
//     serialize back in their original order.
//   - Inline markup inside a segment is kept as a run tree; unknown inline
//     element names pass through unchanged.
//   - Auxiliary elements (note, prop, extensions) are captured as verbatim
//     source slices.
//   - A document parsed from a file retains its source bytes so that
//     untouched units can be written back byte-identically.
//
// A Document is the single owner of its units. Other components (the edit
// tracker, the pagination view, UI rows) hold UnitID handles and resolve
// them through Document.Unit on each access, so they never dangle after a
// structural change.
//
// Thread Safety:
//
// The model has no internal locking. A Document is owned by the parser
// goroutine while it is being built and by the caller's goroutine after
// handoff; all reads and mutations after handoff must happen from that one
// goroutine.
package tmx
